package main

import (
	"fmt"
	"strings"

	"interviewer/audio"
	"interviewer/interview"
)

// roles offered by the picker and cycled with Tab in the TUI. Any other id
// passed with -role is sent to the backend unchanged.
var roles = []string{
	"backend_engineer",
	"frontend_engineer",
	"data_scientist",
	"product_manager",
	"devops_engineer",
}

func roleLabel(role string) string {
	t := interview.RoleTitle(role)
	if t == "" {
		return t
	}
	return strings.ToUpper(t[:1]) + t[1:]
}

func pickRole() (string, error) {
	labels := make([]string, len(roles))
	for i, r := range roles {
		labels[i] = roleLabel(r)
	}
	idx, err := audio.Pick("Select interview role", labels)
	if err != nil {
		return "", fmt.Errorf("role selection: %w", err)
	}
	return roles[idx], nil
}

// nextRole returns the role after current in roles, wrapping around. An
// unknown role starts the cycle from the beginning.
func nextRole(current string) string {
	for i, r := range roles {
		if r == current {
			return roles[(i+1)%len(roles)]
		}
	}
	return roles[0]
}
