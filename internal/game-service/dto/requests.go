package dto

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// erros usam o nome do campo JSON
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate aplica as tags `validate` do payload
func Validate(v any) error { return validate.Struct(v) }

// Message resume o primeiro erro de validação para o cliente
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid payload"
	}
	fe := verrs[0]
	if fe.Tag() == "required" {
		return fe.Field() + " is required"
	}
	return "invalid " + fe.Field()
}

// PlaceBetRequest: betValue é "G"/"R"/"V" | "0"-"9" | "SMALL"/"BIG" conforme betKind
type PlaceBetRequest struct {
	GameType string `json:"gameType"`
	BetKind  string `json:"betKind" validate:"required,oneof=color number size"`
	BetValue string `json:"betValue" validate:"required"`
	Amount   int64  `json:"amount" validate:"required,gt=0"`
}

type SettleRequest struct {
	GameType string `json:"gameType"`
	Period   string `json:"period" validate:"required"`
}

// SetResultRequest é o override manual do admin; cor e tamanho são opcionais
type SetResultRequest struct {
	GameType     string `json:"gameType"`
	Period       string `json:"period" validate:"required"`
	ResultNumber *int   `json:"resultNumber" validate:"required,min=0,max=9"`
	ResultColor  string `json:"resultColor"`
	ResultSize   string `json:"resultSize"`
}

// ConfigUpdateRequest: só os campos presentes são alterados
type ConfigUpdateRequest struct {
	ProfitMode     *bool `json:"profitMode"`
	NewUserBoost   *bool `json:"newUserBoost"`
	WithdrawalRisk *bool `json:"withdrawalRisk"`
	BigBetRisk     *bool `json:"bigBetRisk"`
}
