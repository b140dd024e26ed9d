package view

import (
	"fmt"
	"strings"

	"github.com/nexconsult/controle-cte/internal/models"
	"github.com/nexconsult/controle-cte/internal/services"
	"github.com/nexconsult/controle-cte/internal/utils"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Column headers in display order. The last one holds the row actions.
var Columns = []string{
	"FILIAL",
	"CNPJ",
	"DOC",
	"EMITENTE",
	"VALOR TOTAL",
	"DT. LIBERAÇÃO",
	"STATUS",
	"AÇÕES",
}

// EditField is the field the row edit button puts in edit mode
const EditField = models.FieldDtLib

// Action is what the action cell of a row offers
type Action string

const (
	ActionEdit   Action = "edit"
	ActionSave   Action = "save"
	ActionSaving Action = "saving"
)

// Cell is one rendered data cell
type Cell struct {
	Field    string
	Value    string
	Display  string
	Editable bool
	// Invalid flags a 14-digit issuer id whose check digits do not match
	Invalid bool
}

// Row is one rendered record
type Row struct {
	ID          int64
	Cells       []Cell
	Action      Action
	ActiveField string
	EditField   string
	EditValue   string
}

// Table is the rendered record list
type Table struct {
	Columns []string
	Rows    []Row
}

// BuildTable renders one row per record in list order
func BuildTable(records []models.Record, state services.EditState) Table {
	printer := message.NewPrinter(language.BrazilianPortuguese)

	table := Table{
		Columns: Columns,
		Rows:    make([]Row, 0, len(records)),
	}

	for _, record := range records {
		row := Row{
			ID:        record.ID,
			Cells:     make([]Cell, 0, len(models.RecordFields)),
			EditField: EditField,
		}
		row.EditValue, _ = record.Field(EditField)

		for _, field := range models.RecordFields {
			rendered := state.RenderField(record, field)
			cell := Cell{
				Field:    rendered.Field,
				Value:    rendered.Value,
				Display:  rendered.Value,
				Editable: rendered.Editable,
			}
			// Static cells get display formatting, inputs show the raw value
			if !cell.Editable {
				cell.Display = displayValue(printer, record, field, rendered.Value)
				if field == models.FieldCNPJ && len(utils.CleanDigits(rendered.Value)) == 14 {
					cell.Invalid = !utils.IsValidCNPJ(rendered.Value)
				}
			}
			row.Cells = append(row.Cells, cell)
		}

		// Action button follows the record's phase
		switch state.Phase(record.ID) {
		case services.PhaseSaving:
			row.Action = ActionSaving
		case services.PhaseEditing:
			row.Action = ActionSave
		default:
			row.Action = ActionEdit
		}
		row.ActiveField, _ = state.EditingField(record.ID)

		table.Rows = append(table.Rows, row)
	}

	return table
}

func displayValue(printer *message.Printer, record models.Record, field, value string) string {
	switch field {
	case models.FieldCNPJ:
		return utils.FormatTaxID(value)
	case models.FieldTotVal:
		// Totals that are not numbers are shown as sent
		if total, ok := record.Total(); ok {
			return FormatMoney(printer, total)
		}
	}
	return value
}

// FormatMoney formats an amount in reais, e.g. "R$ 1.532,90". The digits
// come from the decimal itself, never from a float.
func FormatMoney(printer *message.Printer, amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}

	// Group the integer part, keep the cents as written
	units, cents, _ := strings.Cut(rounded.StringFixed(2), ".")
	whole := rounded.Truncate(0).BigInt()
	if whole.IsInt64() {
		units = printer.Sprintf("%d", whole.Int64())
	} else {
		units = groupThousands(units)
	}
	return fmt.Sprintf("R$ %s%s,%s", sign, units, cents)
}

// groupThousands inserts pt-BR thousands separators into a digit string
func groupThousands(digits string) string {
	var b strings.Builder
	for i, digit := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(digit)
	}
	return b.String()
}
