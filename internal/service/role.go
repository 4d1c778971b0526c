package service

import (
	"strings"

	"github.com/iliyamo/ecocharge-reservation/internal/model"
)

// InferRole decides the role of a new account. An explicit role wins
// (case-insensitive); an unknown explicit role is invalid input. Without
// one, addresses whose domain is in operatorDomains become OPERATOR and
// everyone else DRIVER.
func InferRole(email, explicitRole string, operatorDomains []string) (model.Role, error) {
	if r := strings.ToUpper(strings.TrimSpace(explicitRole)); r != "" {
		role := model.Role(r)
		if !role.Valid() {
			return "", invalidf("role must be DRIVER or OPERATOR")
		}
		return role, nil
	}

	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return model.RoleDriver, nil
	}
	domain := email[at+1:]
	for _, d := range operatorDomains {
		if strings.EqualFold(domain, d) {
			return model.RoleOperator, nil
		}
	}
	return model.RoleDriver, nil
}
