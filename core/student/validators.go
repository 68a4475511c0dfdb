package student

import (
	"github.com/go-playground/validator/v10"

	"github.com/Daniel-Nas/teaching-assistant/core"
)

var (
	cpfTag  = "cpf"
	cpfText = "invalid CPF number"
)

func init() {
	_ = core.Validate.RegisterValidation(cpfTag, cpfValidation)
	core.RegisterCustomTranslation(cpfTag, cpfText)
}

func cpfValidation(fl validator.FieldLevel) bool {
	return ValidCPF(fl.Field().String())
}

// ValidCPF checks a Brazilian CPF number against its two check digits.
// Formatting punctuation is stripped first, so both "529.982.247-25" and
// "52998224725" are accepted.
func ValidCPF(cpf string) bool {
	cpf = core.CleanDigits(cpf)
	if len(cpf) != 11 {
		return false
	}

	// repeated-digit numbers (000…, 111…) satisfy the checksum but are not valid CPFs
	allSame := true
	for i := 1; i < len(cpf); i++ {
		if cpf[i] != cpf[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}

	for _, n := range []int{9, 10} {
		var sum int
		for i := 0; i < n; i++ {
			sum += int(cpf[i]-'0') * (n + 1 - i)
		}
		if (sum*10)%11%10 != int(cpf[n]-'0') {
			return false
		}
	}
	return true
}
