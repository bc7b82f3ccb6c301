package models

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var skillSeparators = strings.NewReplacer(" ", "_", "-", "_")

// SkillID derives the catalogue identifier of a skill from its display name.
// Names differing only in case, spaces or hyphens map to the same identifier.
func SkillID(name string) string {
	lower := cases.Lower(language.Und).String(strings.TrimSpace(name))
	return skillSeparators.Replace(lower)
}

// UserSkillID is the identifier of the (user, skill, direction) link.
func UserSkillID(userID, skillID string, d Direction) string {
	return userID + "_" + skillID + "_" + string(d)
}

// ReviewID is the identifier of a reviewer's review of a transaction.
func ReviewID(transactionID, reviewerID string) string {
	return transactionID + "_" + reviewerID
}
