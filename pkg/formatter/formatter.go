// Package formatter renders posts, profiles and user lists.
package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/snapgram/cli/pkg/api"
	"github.com/snapgram/cli/pkg/media"
	"github.com/snapgram/cli/pkg/output"
)

const previewLength = 60

var (
	Bold  = color.New(color.Bold)
	Faint = color.New(color.Faint)
)

// Formatter renders domain values through a printer. MediaBase resolves
// relative image references.
type Formatter struct {
	Out       *output.Printer
	MediaBase string
}

func New(out *output.Printer, mediaBase string) *Formatter {
	return &Formatter{Out: out, MediaBase: mediaBase}
}

// Posts renders a post list. Empty lists print emptyMsg.
func (f *Formatter) Posts(posts []api.Post, emptyMsg string) error {
	if f.Out.IsJSON() {
		return f.Out.JSON(posts)
	}
	if len(posts) == 0 {
		f.Out.Info(emptyMsg)
		return nil
	}

	rows := make([][]string, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			"@" + p.Author.Username,
			Preview(p.Content, previewLength),
			strconv.Itoa(p.LikeCount),
			strconv.Itoa(p.CommentCount),
			Ago(p.CreatedAt),
		})
	}
	return f.Out.Table([]string{"ID", "AUTHOR", "CONTENT", "LIKES", "COMMENTS", "POSTED"}, rows)
}

// Post renders a single post in full.
func (f *Formatter) Post(p *api.Post) error {
	fields := []output.Field{
		{Key: "ID", Value: p.ID},
		{Key: "Author", Value: "@" + p.Author.Username},
		{Key: "Content", Value: p.Content},
	}
	if p.ImageURL != "" {
		fields = append(fields, output.Field{Key: "Image", Value: media.ImageURL(f.MediaBase, p.ImageURL)})
	}
	likes := strconv.Itoa(p.LikeCount)
	if p.Liked {
		likes += " (liked)"
	}
	fields = append(fields,
		output.Field{Key: "Likes", Value: likes},
		output.Field{Key: "Comments", Value: p.CommentCount},
		output.Field{Key: "Posted", Value: Ago(p.CreatedAt)},
	)
	return f.Out.Record(fmt.Sprintf("Post #%d", p.ID), fields, p)
}

// Profile renders a profile header. own and signedIn pick which action
// hint is shown.
func (f *Formatter) Profile(p *api.Profile, posts []api.Post, own, signedIn bool) error {
	if f.Out.IsJSON() {
		return f.Out.JSON(struct {
			Profile *api.Profile `json:"profile"`
			Posts   []api.Post   `json:"posts"`
		}{p, posts})
	}

	avatar := media.ImageURL(f.MediaBase, p.ProfileImageURL)
	if avatar == "" {
		avatar = "[" + media.Initial(p.Username) + "]"
	}

	fields := []output.Field{
		{Key: "Avatar", Value: avatar},
		{Key: "Name", Value: p.Name},
	}
	if p.Bio != "" {
		fields = append(fields, output.Field{Key: "Bio", Value: p.Bio})
	}
	fields = append(fields,
		output.Field{Key: "Posts", Value: p.PostCount},
		output.Field{Key: "Followers", Value: p.FollowerCount},
		output.Field{Key: "Following", Value: p.FollowingCount},
	)
	if signedIn && !own {
		fields = append(fields, output.Field{Key: "You follow", Value: yesNo(p.Following)})
	}

	if err := f.Out.Record("@"+p.Username, fields, p); err != nil {
		return err
	}

	switch {
	case own:
		Faint.Fprintln(f.Out.Writer(), "Edit with: snapgram profile edit")
	case signedIn && p.Following:
		Faint.Fprintf(f.Out.Writer(), "Unfollow with: snapgram profile follow %s\n", p.Username)
	case signedIn:
		Faint.Fprintf(f.Out.Writer(), "Follow with: snapgram profile follow %s\n", p.Username)
	}

	fmt.Fprintln(f.Out.Writer())
	return f.Posts(posts, "No posts yet.")
}

// Users renders a follower or following list.
func (f *Formatter) Users(users []api.UserSummary, emptyMsg string) error {
	if f.Out.IsJSON() {
		return f.Out.JSON(users)
	}
	if len(users) == 0 {
		f.Out.Info(emptyMsg)
		return nil
	}

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{"@" + u.Username, u.Name})
	}
	return f.Out.Table([]string{"USERNAME", "NAME"}, rows)
}

// Preview flattens s to one line of at most n runes.
func Preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

// Ago renders t relative to now.
func Ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
