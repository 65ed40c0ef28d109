package handlers

import (
	"errors"
	"testing"

	"github.com/anjiri1684/edirpay/models"
	"github.com/anjiri1684/edirpay/services"
)

func TestParseForm(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    services.Payload
		wantErr bool
	}{
		{
			name: "payment with string numbers",
			data: `{"type":"payment_report","purpose":"Monthly Fee","period":"March","amount":"500","penalty":"50"}`,
			want: services.Payload{Kind: models.KindPayment, Purpose: "Monthly Fee", Period: "March", Amount: 500, Penalty: 50},
		},
		{
			name: "loan",
			data: `{"type":"loan_request","purpose":"School","amount":2000,"duration":6,"note":" two terms "}`,
			want: services.Payload{Kind: models.KindLoan, Purpose: "School", Amount: 2000, Duration: 6, Note: "two terms"},
		},
		{name: "empty penalty", data: `{"type":"payment_report","amount":100,"penalty":""}`, want: services.Payload{Kind: models.KindPayment, Amount: 100}},
		{name: "unknown type", data: `{"type":"donation","amount":10}`, wantErr: true},
		{name: "zero amount", data: `{"type":"payment_report","amount":0}`, wantErr: true},
		{name: "bad amount", data: `{"type":"payment_report","amount":"ten"}`, wantErr: true},
		{name: "not json", data: `amount=10`, wantErr: true},
		{name: "infinite penalty", data: `{"type":"payment_report","amount":100,"penalty":"Infinity"}`, wantErr: true},
		{name: "nan amount", data: `{"type":"payment_report","amount":"NaN"}`, wantErr: true},
		{name: "huge amount", data: `{"type":"payment_report","amount":"1e300"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseForm([]byte(tt.data))
			if tt.wantErr {
				var verr *services.ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("err = %v, want ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseForm: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseCommands(t *testing.T) {
	p, err := ParsePayCommand("250.5 Monthly Fee")
	if err != nil || p.Amount != 250.5 || p.Purpose != "Monthly Fee" || p.Kind != models.KindPayment {
		t.Errorf("pay = %+v, %v", p, err)
	}
	if _, err := ParsePayCommand(""); err == nil {
		t.Error("empty /pay accepted")
	}
	for _, args := range []string{"Inf rent", "-Inf rent", "NaN rent", "1e300 rent", "1000000000 rent"} {
		var verr *services.ValidationError
		if _, err := ParsePayCommand(args); !errors.As(err, &verr) {
			t.Errorf("ParsePayCommand(%q) err = %v, want ValidationError", args, err)
		}
	}
	if _, err := ParseLoanCommand("Infinity 6 house"); err == nil {
		t.Error("infinite loan accepted")
	}

	l, err := ParseLoanCommand("2000 6 medical bills")
	if err != nil || l.Amount != 2000 || l.Duration != 6 || l.Purpose != "medical bills" {
		t.Errorf("loan = %+v, %v", l, err)
	}
	if _, err := ParseLoanCommand("2000"); err == nil {
		t.Error("loan without months accepted")
	}
	if _, err := ParseLoanCommand("2000 six"); err == nil {
		t.Error("loan with bad months accepted")
	}
}
