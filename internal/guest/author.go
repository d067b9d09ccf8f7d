package guest

import (
	"net/url"
	"strings"

	gh "github.com/johnqtcg/guescus/internal/github"
)

const (
	// GhostAvatarURL is shown for comments whose author account was deleted.
	GhostAvatarURL = "https://github.com/ghost.png"
	// DeletedUserName is shown for comments whose author account was deleted.
	DeletedUserName = "Deleted User"

	generatedAvatarBase = "https://ui-avatars.com/api/?name="
)

// Author is the identity a comment is displayed under.
type Author struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
	// ProfileURL links the physical GitHub account, empty for guests.
	ProfileURL string `json:"profileUrl,omitempty"`
	Website    string `json:"website,omitempty"`
	Email      string `json:"email,omitempty"`
	Guest      bool   `json:"guest"`
}

// AvatarURL returns the generated placeholder avatar for a nickname.
func AvatarURL(nickname string) string {
	name := strings.ReplaceAll(url.QueryEscape(nickname), "+", "%20")
	return generatedAvatarBase + name + "&background=random"
}

// Resolver maps raw comments to the identity they are displayed under.
type Resolver struct {
	// PosterLogin is the account behind the shared guest credential. When
	// set, only its comments may carry a guest marker; a marker in anyone
	// else's comment is shown as plain text. Empty trusts markers from any
	// author.
	PosterLogin string
}

// Resolve computes the effective author and display body of a comment from
// its raw body and its physical author, which is nil for deleted accounts.
func (r Resolver) Resolve(body string, physical *gh.User) (Author, string) {
	if r.trusts(physical) {
		if id, clean, ok := Decode(body); ok {
			return Author{
				Name:      id.Nickname,
				AvatarURL: AvatarURL(id.Nickname),
				Website:   id.Website,
				Email:     id.Email,
				Guest:     true,
			}, clean
		}
	}

	if physical == nil {
		return Author{Name: DeletedUserName, AvatarURL: GhostAvatarURL}, body
	}
	avatar := physical.AvatarURL
	if avatar == "" {
		avatar = GhostAvatarURL
	}
	return Author{
		Name:       physical.Login,
		AvatarURL:  avatar,
		ProfileURL: physical.URL,
	}, body
}

func (r Resolver) trusts(physical *gh.User) bool {
	if r.PosterLogin == "" {
		return true
	}
	return physical != nil && strings.EqualFold(physical.Login, r.PosterLogin)
}
