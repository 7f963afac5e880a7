package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var emailRE = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Normalize maps a raw provider payload to the canonical Profile.
//
// Field sources:
//
//	kakao   id, kakao_account.email, kakao_account.profile.nickname (| properties.nickname),
//	        kakao_account.profile.profile_image_url (| properties.profile_image)
//	naver   response.id, response.email, response.name (| response.nickname), response.profile_image
//	apple   sub, email, name.firstName + " " + name.lastName, no picture
//	google  sub, email, name, picture
func Normalize(p Provider, raw []byte) (*Profile, error) {
	var doc map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %s payload is not a JSON object", ErrProfileValidation, p)
	}

	prof := &Profile{Provider: p, Raw: json.RawMessage(append([]byte(nil), raw...))}
	switch p {
	case Kakao:
		prof.ExternalID = str(doc, "id")
		prof.Email = str(doc, "kakao_account", "email")
		prof.EmailVerified = boolPtr(doc, "kakao_account", "is_email_verified")
		prof.DisplayName = firstNonEmpty(
			str(doc, "kakao_account", "profile", "nickname"),
			str(doc, "properties", "nickname"),
		)
		prof.PictureURL = firstNonEmpty(
			str(doc, "kakao_account", "profile", "profile_image_url"),
			str(doc, "properties", "profile_image"),
		)
	case Naver:
		prof.ExternalID = str(doc, "response", "id")
		prof.Email = str(doc, "response", "email")
		prof.DisplayName = firstNonEmpty(str(doc, "response", "name"), str(doc, "response", "nickname"))
		prof.PictureURL = str(doc, "response", "profile_image")
	case Apple:
		prof.ExternalID = str(doc, "sub")
		prof.Email = str(doc, "email")
		prof.EmailVerified = boolPtr(doc, "email_verified")
		prof.DisplayName = strings.TrimSpace(str(doc, "name", "firstName") + " " + str(doc, "name", "lastName"))
	case Google:
		prof.ExternalID = str(doc, "sub")
		prof.Email = str(doc, "email")
		prof.EmailVerified = boolPtr(doc, "email_verified")
		prof.DisplayName = str(doc, "name")
		prof.PictureURL = str(doc, "picture")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, p)
	}

	if err := Validate(prof); err != nil {
		return nil, err
	}
	prof.PictureURL = secureURL(prof.PictureURL)
	return prof, nil
}

// Validate checks the invariants every profile must satisfy before persistence.
func Validate(p *Profile) error {
	if p == nil {
		return fmt.Errorf("%w: nil profile", ErrProfileValidation)
	}
	if !p.Provider.Valid() {
		return fmt.Errorf("%w: missing provider", ErrProfileValidation)
	}
	if strings.TrimSpace(p.ExternalID) == "" {
		return fmt.Errorf("%w: %s profile has no external id", ErrProfileValidation, p.Provider)
	}
	if p.Email != "" && !emailRE.MatchString(p.Email) {
		return fmt.Errorf("%w: %s profile has a malformed email", ErrProfileValidation, p.Provider)
	}
	return nil
}

func secureURL(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func lookup(doc map[string]any, path ...string) (any, bool) {
	var cur any = doc
	for _, k := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[k]; !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

func str(doc map[string]any, path ...string) string {
	v, ok := lookup(doc, path...)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	}
	return ""
}

// boolPtr accepts JSON booleans and "true"/"false" strings (Apple sends both).
func boolPtr(doc map[string]any, path ...string) *bool {
	v, ok := lookup(doc, path...)
	if !ok {
		return nil
	}
	var b bool
	switch t := v.(type) {
	case bool:
		b = t
	case string:
		switch strings.ToLower(t) {
		case "true":
			b = true
		case "false":
			b = false
		default:
			return nil
		}
	default:
		return nil
	}
	return &b
}
