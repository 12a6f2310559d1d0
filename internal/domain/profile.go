package domain

import (
	"fmt"
	"strings"
)

type ProfileName string

const (
	ProfileLarge  ProfileName = "large"
	ProfileMedium ProfileName = "medium"
	ProfileSmall  ProfileName = "small"
)

const (
	DefaultLargeSize  = 1024
	DefaultMediumSize = 512
	DefaultSmallSize  = 256
)

// ProfileOrder is the fixed processing and reporting order.
var ProfileOrder = []ProfileName{ProfileLarge, ProfileMedium, ProfileSmall}

func (n ProfileName) Valid() bool {
	switch n {
	case ProfileLarge, ProfileMedium, ProfileSmall:
		return true
	}
	return false
}

// ParseProfileName accepts any letter case and surrounding spaces.
func ParseProfileName(s string) (ProfileName, error) {
	name := ProfileName(strings.ToLower(strings.TrimSpace(s)))
	if !name.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownProfile, s)
	}
	return name, nil
}

type Profile struct {
	Name      ProfileName `json:"name"`
	Dimension Dimension   `json:"dimension"`
	Enabled   bool        `json:"enabled"`
}

// ResizeConfig holds the three named output profiles. It is meant to be
// configured once and reused; it must not be mutated while a resize that uses
// it is in flight.
type ResizeConfig struct {
	profiles map[ProfileName]*Profile
}

// NewResizeConfig returns the default configuration: large 1024x1024,
// medium 512x512 and small 256x256, all enabled.
func NewResizeConfig() *ResizeConfig {
	return &ResizeConfig{
		profiles: map[ProfileName]*Profile{
			ProfileLarge:  {Name: ProfileLarge, Dimension: NewDimension(DefaultLargeSize, DefaultLargeSize), Enabled: true},
			ProfileMedium: {Name: ProfileMedium, Dimension: NewDimension(DefaultMediumSize, DefaultMediumSize), Enabled: true},
			ProfileSmall:  {Name: ProfileSmall, Dimension: NewDimension(DefaultSmallSize, DefaultSmallSize), Enabled: true},
		},
	}
}

// IsEnabled returns false for unknown names.
func (c *ResizeConfig) IsEnabled(name ProfileName) bool {
	p, ok := c.profiles[name]
	return ok && p.Enabled
}

// SetEnabled is a no-op for unknown names.
func (c *ResizeConfig) SetEnabled(name ProfileName, enabled bool) *ResizeConfig {
	if p, ok := c.profiles[name]; ok {
		p.Enabled = enabled
	}
	return c
}

// Dimension returns a copy of the configured size, or the zero Dimension for
// unknown names.
func (c *ResizeConfig) Dimension(name ProfileName) Dimension {
	if p, ok := c.profiles[name]; ok {
		return p.Dimension
	}
	return Dimension{}
}

func (c *ResizeConfig) SetDimension(name ProfileName, d Dimension) *ResizeConfig {
	if p, ok := c.profiles[name]; ok {
		p.Dimension = Dimension{Width: d.Width, Height: d.Height}
	}
	return c
}

func (c *ResizeConfig) SetSize(name ProfileName, width, height int) *ResizeConfig {
	return c.SetDimension(name, NewDimension(width, height))
}

// Only keeps the given profiles enabled and disables the rest. An empty list
// leaves the configuration untouched.
func (c *ResizeConfig) Only(names ...ProfileName) *ResizeConfig {
	if len(names) == 0 {
		return c
	}
	keep := make(map[ProfileName]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	for _, name := range ProfileOrder {
		c.SetEnabled(name, keep[name])
	}
	return c
}

// Profiles returns copies of all profiles in ProfileOrder.
func (c *ResizeConfig) Profiles() []Profile {
	out := make([]Profile, 0, len(ProfileOrder))
	for _, name := range ProfileOrder {
		out = append(out, *c.profiles[name])
	}
	return out
}

// Clone returns an independent copy.
func (c *ResizeConfig) Clone() *ResizeConfig {
	clone := &ResizeConfig{profiles: make(map[ProfileName]*Profile, len(c.profiles))}
	for name, p := range c.profiles {
		cp := *p
		clone.profiles[name] = &cp
	}
	return clone
}

// Validate rejects enabled profiles with a non-positive side.
func (c *ResizeConfig) Validate() error {
	for _, p := range c.Profiles() {
		if p.Enabled && !p.Dimension.Valid() {
			return fmt.Errorf("%w: profile %s has dimension %s", ErrConfiguration, p.Name, p.Dimension)
		}
	}
	return nil
}
