package domain

// Category is a named, priority-ordered grouping owning a set of tags.
type Category struct {
	Slug string `json:"slug" yaml:"slug" mapstructure:"slug"`
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Priority orders categories ascending. Nil sorts last.
	Priority *int `json:"priority,omitempty" yaml:"priority,omitempty" mapstructure:"priority"`
}

// Tag is a categorization label attached to options and resources.
type Tag struct {
	Slug     string    `json:"slug" yaml:"slug" mapstructure:"slug"`
	Name     string    `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Category *Category `json:"category,omitempty" yaml:"category,omitempty" mapstructure:"category"`
}

// Resource is an item returned by the resource lookup collaborator.
type Resource struct {
	Slug     string `json:"slug" yaml:"slug" mapstructure:"slug"`
	Title    string `json:"title" yaml:"title" mapstructure:"title"`
	Tags     []Tag  `json:"tags,omitempty" yaml:"tags,omitempty" mapstructure:"tags"`
	Priority *int   `json:"priority,omitempty" yaml:"priority,omitempty" mapstructure:"priority"`
}

// HasTag reports whether the resource carries a tag with the given slug.
func (r Resource) HasTag(slug string) bool {
	for _, t := range r.Tags {
		if t.Slug == slug {
			return true
		}
	}
	return false
}

// Group is one category of a grouped resource listing.
type Group struct {
	Category  Category   `json:"category"`
	Resources []Resource `json:"resources"`
}
