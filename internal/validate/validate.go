// Package validate checks caller-supplied contact data before it reaches the
// store. The store itself accepts whatever it is given.
package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/AbduSami-bK/contact-manager/internal/store"
)

// MaxTags is the most tags a contact may carry.
const MaxTags = 10

const (
	maxNameLen  = 100
	maxFieldLen = 200
	maxNotesLen = 5000
	maxTagLen   = 50
)

var (
	emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRx = regexp.MustCompile(`^[0-9+()\-.\s]*$`)
)

// Error describes the first rule a payload violated.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func fail(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Input validates a new contact.
func Input(in store.ContactInput) error {
	if err := name("firstName", in.FirstName); err != nil {
		return err
	}
	if err := name("lastName", in.LastName); err != nil {
		return err
	}
	return common(&in.Email, &in.Phone, &in.Company, &in.JobTitle, &in.Notes, &in.Avatar, in.Tags, in.Tags != nil)
}

// Patch validates a partial update. Only fields present in p are checked.
func Patch(p store.ContactPatch) error {
	if p.FirstName != nil {
		if err := name("firstName", *p.FirstName); err != nil {
			return err
		}
	}
	if p.LastName != nil {
		if err := name("lastName", *p.LastName); err != nil {
			return err
		}
	}
	return common(p.Email, p.Phone, p.Company, p.JobTitle, p.Notes, p.Avatar, p.Tags, p.Tags != nil)
}

func common(email, phone, company, jobTitle, notes, avatar *string, tags []string, hasTags bool) error {
	if email != nil && *email != "" {
		if err := Email(*email); err != nil {
			return err
		}
	}
	if phone != nil && *phone != "" {
		if err := Phone(*phone); err != nil {
			return err
		}
	}
	if err := maxLen("company", company, maxFieldLen); err != nil {
		return err
	}
	if err := maxLen("jobTitle", jobTitle, maxFieldLen); err != nil {
		return err
	}
	if err := maxLen("notes", notes, maxNotesLen); err != nil {
		return err
	}
	if avatar != nil && *avatar != "" {
		if err := Avatar(*avatar); err != nil {
			return err
		}
	}
	if hasTags {
		return Tags(tags)
	}
	return nil
}

func name(field, v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return fail(field, "is required")
	}
	if len(v) > maxNameLen {
		return fail(field, "exceeds %d characters", maxNameLen)
	}
	return nil
}

func maxLen(field string, v *string, limit int) error {
	if v == nil {
		return nil
	}
	if len(*v) > limit {
		return fail(field, "exceeds %d characters", limit)
	}
	return nil
}

// Email checks a non-empty email address.
func Email(v string) error {
	if len(v) > 320 || !emailRx.MatchString(v) {
		return fail("email", "is not a valid address")
	}
	return nil
}

// Phone allows digits, spaces and + ( ) - . with at least one digit.
func Phone(v string) error {
	if !phoneRx.MatchString(v) || !strings.ContainsAny(v, "0123456789") {
		return fail("phone", "contains invalid characters")
	}
	if len(v) > 40 {
		return fail("phone", "exceeds 40 characters")
	}
	return nil
}

// Tags caps the number and length of tags and rejects blank ones.
func Tags(tags []string) error {
	if len(tags) > MaxTags {
		return fail("tags", "exceeds %d entries", MaxTags)
	}
	for _, t := range tags {
		if strings.TrimSpace(t) == "" {
			return fail("tags", "must not contain blank entries")
		}
		if len(t) > maxTagLen {
			return fail("tags", "entry exceeds %d characters", maxTagLen)
		}
	}
	return nil
}

// Avatar accepts http(s) and data URLs, or a plain file path.
func Avatar(v string) error {
	if !strings.Contains(v, ":") || strings.HasPrefix(v, "data:image/") {
		return nil
	}
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "file") {
		if len(v) > 2 && v[1] == ':' {
			return nil // windows drive path
		}
		return fail("avatar", "must be an http(s) URL, data URL or file path")
	}
	return nil
}
