package models

import "time"

// Collection names as they appear in the document store.
const (
	CollectionProfile        = "profile"
	CollectionCompanies      = "companies"
	CollectionProjects       = "projects"
	CollectionSkills         = "skills"
	CollectionDomains        = "domains"
	CollectionTechnologies   = "technologies"
	CollectionAchievements   = "achievements"
	CollectionCertifications = "certifications"
	CollectionMessages       = "messages"
)

// ProfileKey is the fixed document id of the profile singleton.
const ProfileKey = "main"

// DefaultSkillLevel is applied when a skill is saved without a level.
const DefaultSkillLevel = 50

type Profile struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Title    string `json:"title"`
	Bio      string `json:"bio"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	GitHub   string `json:"github"`
	LinkedIn string `json:"linkedin"`
	Avatar   string `json:"avatar,omitempty"`
}

type Company struct {
	ID           string   `json:"id,omitempty"`
	Name         string   `json:"name"`
	Logo         string   `json:"logo,omitempty"`
	Position     string   `json:"position"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate,omitempty"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	Achievements []string `json:"achievements"`
}

type Project struct {
	ID           string   `json:"id,omitempty"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Image        string   `json:"image,omitempty"`
	GitHubURL    string   `json:"githubUrl,omitempty"`
	LiveURL      string   `json:"liveUrl,omitempty"`
	Technologies []string `json:"technologies"`
	Featured     bool     `json:"featured"`
	Category     string   `json:"category"`
}

type Skill struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Level    int    `json:"level"`
	Icon     string `json:"icon,omitempty"`
}

type Domain struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type Technology struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

type Achievement struct {
	ID           string `json:"id,omitempty"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Date         string `json:"date"`
	Category     string `json:"category"`
	Organization string `json:"organization,omitempty"`
	Link         string `json:"link,omitempty"`
}

type Certification struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	Issuer       string `json:"issuer"`
	Date         string `json:"date"`
	ExpiryDate   string `json:"expiryDate,omitempty"`
	Category     string `json:"category"`
	CredentialID string `json:"credentialId,omitempty"`
	Link         string `json:"link,omitempty"`
	Image        string `json:"image,omitempty"`
	Status       string `json:"status"`
}

type ContactMessage struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Record is implemented by every stored entity so the generic collection can
// move the document key in and out of the struct.
type Record interface {
	GetID() string
	SetID(id string)
}

func (p *Profile) GetID() string { return p.ID }
func (p *Profile) SetID(id string) { p.ID = id }
func (c *Company) GetID() string { return c.ID }
func (c *Company) SetID(id string) { c.ID = id }
func (p *Project) GetID() string { return p.ID }
func (p *Project) SetID(id string) { p.ID = id }
func (s *Skill) GetID() string { return s.ID }
func (s *Skill) SetID(id string) { s.ID = id }
func (d *Domain) GetID() string { return d.ID }
func (d *Domain) SetID(id string) { d.ID = id }
func (t *Technology) GetID() string { return t.ID }
func (t *Technology) SetID(id string) { t.ID = id }
func (a *Achievement) GetID() string { return a.ID }
func (a *Achievement) SetID(id string) { a.ID = id }
func (c *Certification) GetID() string { return c.ID }
func (c *Certification) SetID(id string) { c.ID = id }
func (m *ContactMessage) GetID() string { return m.ID }
func (m *ContactMessage) SetID(id string) { m.ID = id }

// Normalize fills optional-field defaults after a read.
func (c *Company) Normalize() {
	if c.Technologies == nil {
		c.Technologies = []string{}
	}
	if c.Achievements == nil {
		c.Achievements = []string{}
	}
}

func (p *Project) Normalize() {
	if p.Technologies == nil {
		p.Technologies = []string{}
	}
}

func (s *Skill) Normalize() {
	if s.Level == 0 {
		s.Level = DefaultSkillLevel
	}
}
