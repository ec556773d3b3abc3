// Package extract turns free text (an email signature, a pasted business
// card, a web page snippet) into a candidate contact.
package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/AbduSami-bK/contact-manager/internal/store"
)

var (
	emailRx   = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneRx   = regexp.MustCompile(`\+?[0-9(][0-9()\-.\s]{5,}[0-9]`)
	labelRx   = regexp.MustCompile(`(?i)^\s*(name|full name|company|organization|org|title|job title|position|role)\s*[:\-]\s*(.+?)\s*$`)
	atRx      = regexp.MustCompile(`\bat\s+([A-Z][\w&.\-]*(?:\s+[A-Z][\w&.\-]*){0,3})`)
	minDigits = 7
)

// Free mail providers never name the contact's company.
var freeMail = map[string]bool{
	"gmail": true, "googlemail": true, "yahoo": true, "outlook": true,
	"hotmail": true, "live": true, "icloud": true, "me": true,
	"proton": true, "protonmail": true, "aol": true, "gmx": true,
	"mail": true, "yandex": true, "zoho": true,
}

// FromText extracts what it can from text. Fields it cannot find are left
// empty; the result still has to pass validation before it is saved.
func FromText(text string) store.ContactInput {
	var in store.ContactInput
	labels := labelled(text)

	in.Email = emailRx.FindString(text)
	in.Phone = firstPhone(emailRx.ReplaceAllString(text, " "))

	full := labels["name"]
	if full == "" {
		full = nameLine(text)
	}
	in.FirstName, in.LastName = splitName(full)

	in.Company = labels["company"]
	if in.Company == "" {
		if m := atRx.FindStringSubmatch(text); m != nil {
			in.Company = strings.TrimRight(m[1], ".,")
		}
	}
	if in.Company == "" && in.Email != "" {
		in.Company = companyFromDomain(in.Email)
	}
	in.JobTitle = labels["title"]
	return in
}

func labelled(text string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		m := labelRx.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key := strings.ToLower(m[1])
		switch key {
		case "full name":
			key = "name"
		case "organization", "org":
			key = "company"
		case "job title", "position", "role":
			key = "title"
		}
		if _, seen := out[key]; !seen {
			out[key] = m[2]
		}
	}
	return out
}

func firstPhone(text string) string {
	for _, m := range phoneRx.FindAllString(text, -1) {
		digits := 0
		for _, r := range m {
			if unicode.IsDigit(r) {
				digits++
			}
		}
		if digits >= minDigits {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

// nameLine returns the first line made of two or three capitalized words.
func nameLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 3 {
			continue
		}
		ok := true
		for _, w := range words {
			if !capitalized(w) {
				ok = false
				break
			}
		}
		if ok {
			return strings.Join(words, " ")
		}
	}
	return ""
}

func capitalized(w string) bool {
	runes := []rune(w)
	if len(runes) < 2 || !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if !unicode.IsLetter(r) && r != '\'' && r != '-' && r != '.' {
			return false
		}
	}
	return true
}

func splitName(full string) (first, last string) {
	words := strings.Fields(full)
	switch len(words) {
	case 0:
		return "", ""
	case 1:
		return words[0], ""
	default:
		return words[0], strings.Join(words[1:], " ")
	}
}

func companyFromDomain(email string) string {
	at := strings.LastIndexByte(email, '@')
	parts := strings.Split(strings.ToLower(email[at+1:]), ".")
	if len(parts) < 2 {
		return ""
	}
	label := parts[len(parts)-2]
	if freeMail[label] || label == "" {
		return ""
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
