// Package resume holds the static resume record compiled into the binary.
// It supplements live portfolio data when grounding the chat assistant.
package resume

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed resume.yaml
var defaultYAML []byte

type Record struct {
	PersonalInformation    *PersonalInformation `yaml:"personal_information"`
	Summary                []string             `yaml:"summary"`
	Education              []Education          `yaml:"education"`
	TechnicalSkills        []SkillGroup         `yaml:"technical_skills"`
	Experience             []Experience         `yaml:"experience"`
	Projects               []Project            `yaml:"projects"`
	Certifications         []string             `yaml:"certifications"`
	PatentsAndPublications []Publication        `yaml:"patents_and_publications"`
	Leadership             []Involvement        `yaml:"leadership_and_involvement"`
	Achievements           []string             `yaml:"achievements"`
}

// PersonalInformation keeps YAML field order when rendered as JSON.
type PersonalInformation struct {
	Name     string `yaml:"name" json:"name"`
	Email    string `yaml:"email" json:"email"`
	Phone    string `yaml:"phone" json:"phone"`
	Location string `yaml:"location" json:"location"`
	LinkedIn string `yaml:"linkedin" json:"linkedin"`
	GitHub   string `yaml:"github" json:"github"`
	LeetCode string `yaml:"leetcode,omitempty" json:"leetcode,omitempty"`
}

type Education struct {
	Institution string `yaml:"institution"`
	Degree      string `yaml:"degree"`
	Period      string `yaml:"period"`
	CGPA        string `yaml:"cgpa"`
}

// SkillGroup is one named category; a list keeps categories in file order.
type SkillGroup struct {
	Category string   `yaml:"category"`
	Items    []string `yaml:"items"`
}

type Experience struct {
	Company      string   `yaml:"company"`
	Role         string   `yaml:"role"`
	Location     string   `yaml:"location"`
	Period       string   `yaml:"period"`
	Achievements []string `yaml:"achievements"`
}

type Project struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	TechStack   []string `yaml:"tech_stack"`
	Recognition string   `yaml:"recognition"`
}

type Publication struct {
	Title   string `yaml:"title"`
	Type    string `yaml:"type"`
	ID      string `yaml:"id"`
	Journal string `yaml:"journal"`
	Date    string `yaml:"date"`
}

type Involvement struct {
	Organization string   `yaml:"organization"`
	Role         string   `yaml:"role"`
	Period       string   `yaml:"period"`
	Achievements []string `yaml:"achievements"`
}

var (
	loadOnce sync.Once
	loaded   Record
	loadErr  error
)

// Default returns a copy of the embedded record. The embedded file is part of
// the build, so a parse failure is a programming error and panics.
func Default() Record {
	loadOnce.Do(func() {
		loaded, loadErr = Parse(defaultYAML)
	})
	if loadErr != nil {
		panic(fmt.Sprintf("resume: embedded record is invalid: %v", loadErr))
	}
	return loaded.Clone()
}

func Parse(data []byte) (Record, error) {
	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to parse resume record: %w", err)
	}
	return rec, nil
}

// Name is the subject's name, or "" when the record has no personal section.
func (r Record) Name() string {
	if r.PersonalInformation == nil {
		return ""
	}
	return r.PersonalInformation.Name
}

// Clone deep-copies the record so callers cannot mutate the shared value.
func (r Record) Clone() Record {
	out := Record{
		Summary:        cloneStrings(r.Summary),
		Education:      append([]Education(nil), r.Education...),
		Certifications: cloneStrings(r.Certifications),
		Achievements:   cloneStrings(r.Achievements),
	}
	if r.PersonalInformation != nil {
		pi := *r.PersonalInformation
		out.PersonalInformation = &pi
	}
	for _, g := range r.TechnicalSkills {
		out.TechnicalSkills = append(out.TechnicalSkills, SkillGroup{Category: g.Category, Items: cloneStrings(g.Items)})
	}
	for _, e := range r.Experience {
		e.Achievements = cloneStrings(e.Achievements)
		out.Experience = append(out.Experience, e)
	}
	for _, p := range r.Projects {
		p.TechStack = cloneStrings(p.TechStack)
		out.Projects = append(out.Projects, p)
	}
	out.PatentsAndPublications = append([]Publication(nil), r.PatentsAndPublications...)
	for _, l := range r.Leadership {
		l.Achievements = cloneStrings(l.Achievements)
		out.Leadership = append(out.Leadership, l)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
