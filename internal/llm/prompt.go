package llm

import (
	"encoding/json"
	"strings"
)

// buildInstruction composes the fixed block sent with every structuring
// request: the four allowed categories, the field set, and the bare-JSON
// reply requirement. The category hints are bilingual because receipts are
// mostly Chinese while many models follow English instructions better.
func buildInstruction() string {
	parts := []string{
		"You are an invoice classifier for travel expense reimbursement (差旅费报销).",
		"Read the invoice and return ONLY a bare JSON object. No markdown fences, no commentary before or after.",
		"Fields:",
		`"type": exactly one of "inter-city" (城市间交通费: 机票/火车票/长途汽车票), "accommodation" (住宿费: 酒店/宾馆发票), "intra-city" (市内交通费: 出租车/网约车/地铁/公交), "registration" (会议注册费). Use "unknown" only when none applies.`,
		`"amount": the invoice total (价税合计) as a number, e.g. 553.5. No currency symbols.`,
		`"date": the invoice date in YYYY-MM-DD form.`,
		`"description": a short description of the expense (发票内容), e.g. "北京南-上海虹桥 高铁二等座".`,
		"The reply must validate against this JSON Schema:",
		mustJSON(BuildInvoiceJSONSchema()),
	}
	return strings.Join(parts, "\n")
}

// BuildTextPrompt concatenates the instruction block with extracted invoice
// text.
func BuildTextPrompt(text string) string {
	var b strings.Builder
	b.WriteString(buildInstruction())
	b.WriteString("\n\nInvoice text:\n")
	b.WriteString(text)
	return b.String()
}

// BuildVisionPrompt is the instruction block for requests that attach the
// invoice as an image.
func BuildVisionPrompt() string {
	return buildInstruction() + "\n\nThe invoice is attached as an image."
}

func mustJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}
