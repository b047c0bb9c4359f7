package user

import "strings"

// ProfileUpdate is one field-level change to a user's profile.
type ProfileUpdate interface {
	apply(u *User)
}

type SetName string

func (v SetName) apply(u *User) { u.Name = strings.TrimSpace(string(v)) }

type SetEmail string

func (v SetEmail) apply(u *User) { u.Email = strings.TrimSpace(string(v)) }

type SetAvatar string

func (v SetAvatar) apply(u *User) { u.Avatar = string(v) }

type ClearAvatar struct{}

func (ClearAvatar) apply(u *User) { u.Avatar = "" }

// Updates converts an HTTP profile request into update variants.
func (r ProfileRequest) Updates() []ProfileUpdate {
	var out []ProfileUpdate
	if r.Name != nil {
		out = append(out, SetName(*r.Name))
	}
	if r.Email != nil {
		out = append(out, SetEmail(*r.Email))
	}
	if r.Avatar != nil {
		out = append(out, SetAvatar(*r.Avatar))
	}
	if r.ClearAvatar {
		out = append(out, ClearAvatar{})
	}
	return out
}
