package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNew_TotalIsExactSum(t *testing.T) {
	lines := []Line{
		NewLine("i1", "A", "a", "", d("0.10"), 3),
		NewLine("i2", "B", "b", "", d("19.99"), 7),
		NewLine("i3", "C", "c", "", d("0.01"), 1),
	}
	o := New("acc", lines, time.Now())

	assert.True(t, d("0.30").Equal(lines[0].LineTotal))
	assert.True(t, d("139.93").Equal(lines[1].LineTotal))
	assert.True(t, d("140.24").Equal(o.Total), "got %s", o.Total)
	assert.Equal(t, "140.24", o.View().Total)
	assert.Equal(t, StatusPending, o.Status)
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		confirm bool
		want    Status
		changed bool
	}{
		{"pending confirm", StatusPending, true, StatusConfirmed, true},
		{"pending cancel", StatusPending, false, StatusCanceled, true},
		{"confirmed cancel", StatusConfirmed, false, StatusConfirmed, false},
		{"confirmed confirm", StatusConfirmed, true, StatusConfirmed, false},
		{"canceled confirm", StatusCanceled, true, StatusCanceled, false},
		{"canceled cancel", StatusCanceled, false, StatusCanceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{Status: tt.from}
			var changed bool
			if tt.confirm {
				changed = o.Confirm()
			} else {
				changed = o.Cancel()
			}
			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.want, o.Status)
		})
	}
}

func TestView_Lines(t *testing.T) {
	o := New("acc", []Line{NewLine("i1", "SKU1", "Keyboard", "pic://kb", d("10"), 2)}, time.Now())
	v := o.View()

	assert.Equal(t, o.ID, v.ID)
	assert.Equal(t, "acc", v.AccountID)
	assert.Equal(t, []LineView{{
		SKU: "SKU1", Name: "Keyboard", PictureRef: "pic://kb",
		UnitPrice: "10.00", LineTotal: "20.00", Quantity: 2,
	}}, v.Lines)

	amt, err := v.TotalAmount()
	assert.NoError(t, err)
	assert.True(t, d("20").Equal(amt))
}

func TestClone_IsDeep(t *testing.T) {
	o := New("acc", []Line{NewLine("i1", "A", "a", "", d("1"), 1)}, time.Now())
	cp := o.Clone()
	cp.Lines[0].SKU = "changed"
	cp.Status = StatusCanceled

	assert.Equal(t, "A", o.Lines[0].SKU)
	assert.Equal(t, StatusPending, o.Status)
}
