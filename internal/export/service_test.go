package export

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Dregen-Yor/auto-invoice/constants"
	"github.com/Dregen-Yor/auto-invoice/internal/entity"
)

type fakeState struct {
	people []entity.Person
	trip   entity.TripInfo
}

func (s *fakeState) ListPeople() []entity.Person { return s.people }
func (s *fakeState) TripInfo() entity.TripInfo   { return s.trip }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func invoice(cat constants.Category, amount float64, status constants.InvoiceStatus) entity.Invoice {
	return entity.Invoice{
		ID:          uuid.New(),
		Category:    cat,
		Amount:      &amount,
		Date:        "2025-03-14",
		Description: "测试发票",
		Status:      status,
	}
}

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref)
	require.NoError(t, err)
	return v
}

func TestDetailWorkbookFiltersNonExportable(t *testing.T) {
	state := &fakeState{
		people: []entity.Person{
			{
				ID: uuid.New(), Name: "张三", Number: "2021001",
				Invoices: []entity.Invoice{
					invoice(constants.InterCityTransport, 553.5, constants.StatusSuccess),
					invoice(constants.Accommodation, 300, constants.StatusError),
					invoice(constants.Registration, 800, constants.StatusPending),
					invoice(constants.Unknown, 10, constants.StatusSuccess),
				},
			},
			{
				ID: uuid.New(), Name: "李四", Number: "2021002",
				Invoices: []entity.Invoice{
					invoice(constants.Accommodation, 100, constants.StatusSuccess),
				},
			},
		},
	}

	data, err := NewService(state, testLogger()).DetailWorkbook()
	require.NoError(t, err)
	f := openWorkbook(t, data)

	assert.Equal(t, "姓名", cell(t, f, "发票明细", "A1"))
	assert.Equal(t, "费用类别", cell(t, f, "发票明细", "C1"))

	assert.Equal(t, "张三", cell(t, f, "发票明细", "A2"))
	assert.Equal(t, "2021001", cell(t, f, "发票明细", "B2"))
	assert.Equal(t, "城市间交通费", cell(t, f, "发票明细", "C2"))
	assert.Equal(t, "553.5", cell(t, f, "发票明细", "D2"))
	assert.Equal(t, "2025-03-14", cell(t, f, "发票明细", "E2"))

	assert.Equal(t, "李四", cell(t, f, "发票明细", "A3"))
	assert.Equal(t, "住宿费", cell(t, f, "发票明细", "C3"))

	// error, pending and unknown-category records never appear
	assert.Empty(t, cell(t, f, "发票明细", "A4"))
}

func TestSummarySubtotalsAndGrandTotal(t *testing.T) {
	state := &fakeState{
		people: []entity.Person{
			{
				ID: uuid.New(), Name: "张三", Number: "2021001",
				Invoices: []entity.Invoice{
					invoice(constants.Accommodation, 100, constants.StatusSuccess),
					invoice(constants.Accommodation, 50, constants.StatusSuccess),
					invoice(constants.InterCityTransport, 200, constants.StatusSuccess),
					invoice(constants.Registration, 25.5, constants.StatusError),
				},
			},
		},
	}

	data, err := NewService(state, testLogger()).SummaryWorkbook()
	require.NoError(t, err)
	f := openWorkbook(t, data)

	// three data rows padded to five, subtotal on row 7
	assert.Equal(t, "小计", cell(t, f, "报销汇总", "A7"))
	assert.Equal(t, "200", cell(t, f, "报销汇总", "C7"))
	assert.Equal(t, "150", cell(t, f, "报销汇总", "D7"))
	assert.Equal(t, "0", cell(t, f, "报销汇总", "E7"))
	assert.Equal(t, "0", cell(t, f, "报销汇总", "F7"))
	assert.Equal(t, "350", cell(t, f, "报销汇总", "G7"))
}

func TestSummaryRowLayout(t *testing.T) {
	state := &fakeState{
		people: []entity.Person{
			{
				ID: uuid.New(), Name: "张三", Number: "2021001",
				Invoices: []entity.Invoice{
					// stored out of order on purpose
					invoice(constants.Registration, 800, constants.StatusSuccess),
					invoice(constants.InterCityTransport, 553.5, constants.StatusSuccess),
				},
			},
			{
				ID: uuid.New(), Name: "李四", Number: "2021002",
				Invoices: []entity.Invoice{
					invoice(constants.IntraCityTransport, 35, constants.StatusSuccess),
				},
			},
		},
		trip: entity.TripInfo{
			Reason:      "学术会议",
			Destination: "上海",
			DateRange:   "2025-03-12 至 2025-03-15",
			Remark:      "含注册费",
		},
	}

	data, err := NewService(state, testLogger()).SummaryWorkbook()
	require.NoError(t, err)
	f := openWorkbook(t, data)

	assert.Equal(t, "城市间交通费", cell(t, f, "报销汇总", "C1"))
	assert.Equal(t, "合计", cell(t, f, "报销汇总", "G1"))

	// categories re-ordered into the fixed sequence
	assert.Equal(t, "张三", cell(t, f, "报销汇总", "A2"))
	assert.Equal(t, "553.5", cell(t, f, "报销汇总", "C2"))
	// second row of the same person leaves name and number blank
	assert.Empty(t, cell(t, f, "报销汇总", "A3"))
	assert.Equal(t, "800", cell(t, f, "报销汇总", "F3"))

	assert.Equal(t, "李四", cell(t, f, "报销汇总", "A4"))
	assert.Equal(t, "35", cell(t, f, "报销汇总", "E4"))

	// subtotal after padding, then the four trip metadata lines
	assert.Equal(t, "小计", cell(t, f, "报销汇总", "A7"))
	assert.Equal(t, "出差事由：学术会议", cell(t, f, "报销汇总", "A8"))
	assert.Equal(t, "出差地点：上海", cell(t, f, "报销汇总", "A9"))
	assert.Equal(t, "出差日期：2025-03-12 至 2025-03-15", cell(t, f, "报销汇总", "A10"))
	assert.Equal(t, "备注：含注册费", cell(t, f, "报销汇总", "A11"))
}

func TestSummaryEmptyCollection(t *testing.T) {
	state := &fakeState{}

	data, err := NewService(state, testLogger()).SummaryWorkbook()
	require.NoError(t, err)
	f := openWorkbook(t, data)

	assert.Equal(t, "小计", cell(t, f, "报销汇总", "A7"))
	assert.Equal(t, "0", cell(t, f, "报销汇总", "G7"))
}
