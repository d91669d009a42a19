package docscan

import (
	"regexp"
	"strings"
)

var (
	reDate    = regexp.MustCompile(`20\d{2}\s*[-/.年]\s*\d{1,2}\s*[-/.月]\s*\d{1,2}`)
	reCurr    = regexp.MustCompile(`[¥￥$]|元|人民币|CNY|RMB`)
	reAmount  = regexp.MustCompile(`\d{1,3}(,\d{3})*\.\d{2}|\d+\.\d{2}`)
	reInvoice = regexp.MustCompile(`发票|车票|税额|价税合计|invoice|receipt`)
)

func hasDatePattern(s string) bool    { return reDate.MatchString(s) }
func hasCurrencyPattern(s string) bool { return reCurr.MatchString(s) }
func hasAmountPattern(s string) bool  { return reAmount.MatchString(s) }
func hasInvoicePattern(s string) bool { return reInvoice.MatchString(s) }

// heuristicConfidence scores recognized text on receipt-like artifacts. Only
// used for logging; nothing downstream branches on it.
func heuristicConfidence(txt string) float32 {
	txtL := strings.ToLower(txt)
	score := float32(0.2) // base
	if hasDatePattern(txtL) {
		score += 0.2
	}
	if hasCurrencyPattern(txtL) {
		score += 0.15
	}
	if hasAmountPattern(txtL) {
		score += 0.15
	}
	if hasInvoicePattern(txtL) {
		score += 0.15
	}
	if len(txt) > 120 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}
