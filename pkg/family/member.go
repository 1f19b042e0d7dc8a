package family

import (
	"github.com/google/uuid"

	"github.com/matzehuels/kinboard/pkg/geometry"
)

// Gender of a member.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// Member is a person on the canvas.
type Member struct {
	ID        string `json:"id" bson:"_id" yaml:"id" validate:"required,max=128"`
	Name      string `json:"name" bson:"name" yaml:"name" validate:"required,max=200"`
	NameZh    string `json:"nameZh,omitempty" bson:"name_zh,omitempty" yaml:"nameZh,omitempty" validate:"max=200"`
	Role      string `json:"role" bson:"role" yaml:"role" validate:"max=100"`
	BirthDate string `json:"birthDate,omitempty" bson:"birth_date,omitempty" yaml:"birthDate,omitempty" validate:"max=40"`
	DeathDate string `json:"deathDate,omitempty" bson:"death_date,omitempty" yaml:"deathDate,omitempty" validate:"max=40"`
	Location  string `json:"location,omitempty" bson:"location,omitempty" yaml:"location,omitempty" validate:"max=200"`
	Avatar    string `json:"avatar,omitempty" bson:"avatar,omitempty" yaml:"avatar,omitempty" validate:"omitempty,url"`
	Bio       string `json:"bio,omitempty" bson:"bio,omitempty" yaml:"bio,omitempty" validate:"max=5000"`
	Gender    Gender `json:"gender" bson:"gender" yaml:"gender" validate:"oneof=male female"`
	IsSelf    bool   `json:"isSelf,omitempty" bson:"is_self" yaml:"isSelf,omitempty"`

	// X and Y are the world-space top-left corner of the card.
	X float64 `json:"x" bson:"x" yaml:"x"`
	Y float64 `json:"y" bson:"y" yaml:"y"`
}

// Position returns the card's top-left corner.
func (m Member) Position() geometry.Point {
	return geometry.Point{X: m.X, Y: m.Y}
}

// MoveTo returns m placed at p.
func (m Member) MoveTo(p geometry.Point) Member {
	m.X, m.Y = p.X, p.Y
	return m
}

// DisplayName returns the localized name when localize is set and one is
// present, otherwise the default name.
func (m Member) DisplayName(localize bool) string {
	if localize && m.NameZh != "" {
		return m.NameZh
	}
	return m.Name
}

// NewMember returns a member with a fresh id and the defaults used by the
// create form.
func NewMember(name, role string, gender Gender) Member {
	if gender == "" {
		gender = Male
	}
	return Member{
		ID:     NewID(),
		Name:   name,
		Role:   role,
		Gender: gender,
	}
}

// NewID returns a random identifier for a member or connection.
func NewID() string {
	return uuid.NewString()
}

// FindMember returns the member with the given id.
func FindMember(members []Member, id string) (Member, bool) {
	for _, m := range members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// FindSelf returns the first member flagged IsSelf.
func FindSelf(members []Member) (Member, bool) {
	for _, m := range members {
		if m.IsSelf {
			return m, true
		}
	}
	return Member{}, false
}
