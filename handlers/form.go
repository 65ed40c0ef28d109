package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/anjiri1684/edirpay/models"
	"github.com/anjiri1684/edirpay/services"
)

const (
	FormPaymentReport = "payment_report"
	FormLoanRequest   = "loan_request"
)

// number accepts both 500 and "500" since form fields arrive as either.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return fmt.Errorf("not a number: %q", s)
		}
		*n = number(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = number(v)
	return nil
}

// FormPayload is the JSON posted by the mini app form.
type FormPayload struct {
	Type     string `json:"type"`
	Purpose  string `json:"purpose"`
	Period   string `json:"period"`
	Amount   number `json:"amount"`
	Penalty  number `json:"penalty"`
	Duration number `json:"duration"`
	Note     string `json:"note"`
}

func ParseForm(data []byte) (services.Payload, error) {
	var f FormPayload
	if err := json.Unmarshal(data, &f); err != nil {
		return services.Payload{}, &services.ValidationError{Fields: []string{"form"}, Reason: err.Error()}
	}
	return f.Payload()
}

// Payload maps the form onto a validated submission payload.
func (f FormPayload) Payload() (services.Payload, error) {
	p := services.Payload{
		Purpose:  strings.TrimSpace(f.Purpose),
		Period:   strings.TrimSpace(f.Period),
		Amount:   float64(f.Amount),
		Penalty:  float64(f.Penalty),
		Duration: int(f.Duration),
		Note:     strings.TrimSpace(f.Note),
	}
	switch f.Type {
	case FormPaymentReport:
		p.Kind = models.KindPayment
	case FormLoanRequest:
		p.Kind = models.KindLoan
	default:
		return services.Payload{}, &services.ValidationError{Fields: []string{"type"}, Reason: fmt.Sprintf("unknown form type %q", f.Type)}
	}
	if err := p.Validate(); err != nil {
		return services.Payload{}, err
	}
	return p, nil
}

// ParsePayCommand reads "/pay <amount> <purpose...>".
func ParsePayCommand(args string) (services.Payload, error) {
	fields := strings.Fields(args)
	if len(fields) < 1 {
		return services.Payload{}, &services.ValidationError{Fields: []string{"amount"}, Reason: "usage: /pay <amount> <purpose>"}
	}
	amount, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return services.Payload{}, &services.ValidationError{Fields: []string{"amount"}, Reason: "usage: /pay <amount> <purpose>"}
	}
	p := services.Payload{Kind: models.KindPayment, Amount: amount, Purpose: strings.Join(fields[1:], " ")}
	return p, p.Validate()
}

// ParseLoanCommand reads "/loan <amount> <months> <purpose...>".
func ParseLoanCommand(args string) (services.Payload, error) {
	usage := &services.ValidationError{Fields: []string{"amount", "duration"}, Reason: "usage: /loan <amount> <months> <purpose>"}
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return services.Payload{}, usage
	}
	amount, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return services.Payload{}, usage
	}
	months, err := strconv.Atoi(fields[1])
	if err != nil {
		return services.Payload{}, usage
	}
	p := services.Payload{Kind: models.KindLoan, Amount: amount, Duration: months, Purpose: strings.Join(fields[2:], " ")}
	return p, p.Validate()
}
