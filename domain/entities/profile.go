package entities

// ProfileData is the render context decoded from the host's profile JSON.
// Every optional field may be omitted from the wire document.
type ProfileData struct {
	Instance    InstanceInfo `json:"instance" jsonschema:"description=Instance the profile is served from"`
	Handle      string       `json:"handle" jsonschema:"description=Profile handle"`
	DisplayName *string      `json:"display_name,omitempty"`
	Bio         *string      `json:"bio,omitempty" jsonschema:"description=Markdown biography"`
	Tags        []string     `json:"tags,omitempty"`
	SocialLinks []SocialLink `json:"social_links,omitempty" validate:"dive"`
	Links       []Link       `json:"links,omitempty" validate:"dive"`
	Pages       []Page       `json:"pages,omitempty" validate:"dive"`
}

// InstanceInfo describes the instance serving the profile.
type InstanceInfo struct {
	URL string `json:"url"`
}

// SocialLink is a link to the profile owner's account on another platform.
type SocialLink struct {
	URL          string  `json:"url" validate:"required" jsonschema:"required,minLength=1"`
	Label        *string `json:"label,omitempty"`
	PlatformName *string `json:"platform_name,omitempty"`
	Icon         *string `json:"icon,omitempty"`
	IconName     *string `json:"icon_name,omitempty"`
}

// Link is a free-form profile link.
type Link struct {
	URL   string  `json:"url" validate:"required" jsonschema:"required,minLength=1"`
	Label *string `json:"label,omitempty"`
}

// Page is a sub-page of the profile.
type Page struct {
	Slug string  `json:"slug" validate:"required" jsonschema:"required,minLength=1"`
	Name *string `json:"name,omitempty"`
}

// Context flattens the profile into the template context.
// Keys follow the JSON field names; absent optional fields are left out so
// that the template sees them as undefined.
func (p ProfileData) Context() map[string]any {
	ctx := map[string]any{
		"instance":     map[string]any{"url": p.Instance.URL},
		"handle":       p.Handle,
		"tags":         stringsOrEmpty(p.Tags),
		"social_links": socialLinksContext(p.SocialLinks),
		"links":        linksContext(p.Links),
		"pages":        pagesContext(p.Pages),
	}
	putOptional(ctx, "display_name", p.DisplayName)
	putOptional(ctx, "bio", p.Bio)
	return ctx
}

func socialLinksContext(in []SocialLink) []map[string]any {
	out := make([]map[string]any, 0, len(in))
	for _, l := range in {
		m := map[string]any{"url": l.URL}
		putOptional(m, "label", l.Label)
		putOptional(m, "platform_name", l.PlatformName)
		putOptional(m, "icon", l.Icon)
		putOptional(m, "icon_name", l.IconName)
		out = append(out, m)
	}
	return out
}

func linksContext(in []Link) []map[string]any {
	out := make([]map[string]any, 0, len(in))
	for _, l := range in {
		m := map[string]any{"url": l.URL}
		putOptional(m, "label", l.Label)
		out = append(out, m)
	}
	return out
}

func pagesContext(in []Page) []map[string]any {
	out := make([]map[string]any, 0, len(in))
	for _, p := range in {
		m := map[string]any{"slug": p.Slug}
		putOptional(m, "name", p.Name)
		out = append(out, m)
	}
	return out
}

func stringsOrEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func putOptional(m map[string]any, key string, v *string) {
	if v != nil {
		m[key] = *v
	}
}
