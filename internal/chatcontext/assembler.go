// Package chatcontext turns portfolio records into the grounding text sent to
// the language model, plus the canned replies used when the model is not
// reachable.
package chatcontext

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/portfolio/backend/internal/resume"
	"github.com/portfolio/backend/internal/storage/models"
)

// Snapshot is the live data as loaded when the chat opened. Any list may be
// empty if its fetch failed.
type Snapshot struct {
	Profile        *models.Profile
	Companies      []models.Company
	Projects       []models.Project
	Skills         []models.Skill
	Domains        []models.Domain
	Certifications []models.Certification
	Achievements   []models.Achievement
	Loaded         bool
}

const defaultSubject = "the user"

// SubjectName prefers the live profile, then the resume, then a neutral label.
func SubjectName(snap Snapshot, rec resume.Record) string {
	if snap.Profile != nil && snap.Profile.Name != "" {
		return snap.Profile.Name
	}
	if name := rec.Name(); name != "" {
		return name
	}
	return defaultSubject
}

// Assemble renders every section with live and resume data side by side.
// Empty sections get their placeholder text. It has no side effects.
func Assemble(snap Snapshot, rec resume.Record) string {
	name := SubjectName(snap, rec)

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s's AI assistant for their portfolio website. Here is %s's current portfolio data (from both the live portfolio and the resume):\n\n", name, name)

	b.WriteString("PROFILE:\n")
	b.WriteString("Live: " + profileJSON(snap.Profile) + "\n")
	b.WriteString("Resume: " + personalJSON(rec.PersonalInformation) + "\n\n")

	b.WriteString("SUMMARY:\n")
	b.WriteString(orPlaceholder(rec.Summary, "No summary") + "\n\n")

	b.WriteString("EDUCATION:\n")
	b.WriteString(orPlaceholder(mapLines(rec.Education, formatEducation), "No education info") + "\n\n")

	b.WriteString("TECHNICAL SKILLS:\n")
	b.WriteString(orPlaceholder(mapLines(rec.TechnicalSkills, formatSkillGroup), "No skills") + "\n\n")

	fmt.Fprintf(&b, "WORK EXPERIENCE (%d companies):\n", len(snap.Companies))
	b.WriteString(labelled("Live", mapLines(snap.Companies, formatCompany), "No experience data available"))
	b.WriteString(labelled("Resume", mapLines(rec.Experience, formatExperience), "No resume experience"))
	b.WriteString("\n")

	fmt.Fprintf(&b, "PROJECTS (%d projects):\n", len(snap.Projects))
	b.WriteString(labelled("Live", mapLines(snap.Projects, formatProject), "No project data available"))
	b.WriteString(labelled("Resume", mapLines(rec.Projects, formatResumeProject), "No resume projects"))
	b.WriteString("\n")

	fmt.Fprintf(&b, "SKILLS (%d skills):\n", len(snap.Skills))
	b.WriteString(labelled("Live", mapLines(snap.Skills, formatSkill), "No skills data available"))
	b.WriteString("\n")

	fmt.Fprintf(&b, "SPECIALIZED DOMAINS (%d domains):\n", len(snap.Domains))
	b.WriteString(labelled("Live", mapLines(snap.Domains, formatDomain), "No domain data available"))
	b.WriteString("\n")

	fmt.Fprintf(&b, "CERTIFICATIONS (%d certifications):\n", len(snap.Certifications))
	b.WriteString(labelled("Live", mapLines(snap.Certifications, formatCertification), "No certification data available"))
	b.WriteString(labelled("Resume", bullets(rec.Certifications), "No resume certifications"))
	b.WriteString("\n")

	fmt.Fprintf(&b, "ACHIEVEMENTS (%d achievements):\n", len(snap.Achievements))
	b.WriteString(labelled("Live", mapLines(snap.Achievements, formatAchievement), "No achievement data available"))
	b.WriteString(labelled("Resume", bullets(rec.Achievements), "No resume achievements"))
	b.WriteString("\n")

	b.WriteString("PATENTS & PUBLICATIONS:\n")
	b.WriteString(orPlaceholder(mapLines(rec.PatentsAndPublications, formatPublication), "No patents/publications") + "\n\n")

	b.WriteString("LEADERSHIP & INVOLVEMENT:\n")
	b.WriteString(orPlaceholder(mapLines(rec.Leadership, formatInvolvement), "No leadership/involvement") + "\n\n")

	b.WriteString("Instructions:\n")
	for _, line := range instructions(name) {
		b.WriteString("- " + line + "\n")
	}

	return b.String()
}

// BuildPrompt frames the context and question the way the relay expects.
func BuildPrompt(name, context, question string) string {
	return fmt.Sprintf("You are %s's AI assistant for their portfolio website. Based on the following portfolio information, answer the user's question in a friendly and helpful manner.\n\n%s\n\nUser Question: %s\n\nAssistant Response:",
		name, strings.TrimSpace(context), strings.TrimSpace(question))
}

func instructions(name string) []string {
	return []string{
		"Respond in a friendly, conversational tone",
		"Use emojis occasionally to keep it engaging",
		"Provide specific details from the portfolio and resume data when appropriate",
		"Keep responses concise but informative (2-4 sentences)",
		"If the user asks about something not in the data, politely direct them to explore the portfolio sections",
		fmt.Sprintf("Always be helpful and enthusiastic about %s's work", name),
		fmt.Sprintf("Use %s's actual name when referring to them", name),
	}
}

func profileJSON(p *models.Profile) string {
	if p == nil {
		return "No profile data available"
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "No profile data available"
	}
	return string(data)
}

func personalJSON(p *resume.PersonalInformation) string {
	if p == nil {
		return "No resume personal info"
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "No resume personal info"
	}
	return string(data)
}

func labelled(label string, lines []string, placeholder string) string {
	if len(lines) == 0 {
		return label + ": " + placeholder + "\n"
	}
	return label + ":\n" + strings.Join(lines, "\n") + "\n"
}

func orPlaceholder(lines []string, placeholder string) string {
	if len(lines) == 0 {
		return placeholder
	}
	return strings.Join(lines, "\n")
}

func mapLines[T any](items []T, format func(T) string) []string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, format(item))
	}
	return lines
}

func bullets(items []string) []string {
	return mapLines(items, func(s string) string { return "- " + s })
}

// line joins the non-empty parts with single spaces.
func line(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func field(label, value string) string {
	if value == "" {
		return ""
	}
	return label + ": " + value
}

func listField(label string, values []string, sep string) string {
	if len(values) == 0 {
		return ""
	}
	return label + ": " + strings.Join(values, sep)
}

func formatEducation(e resume.Education) string {
	period := e.Period
	if e.CGPA != "" {
		period += ", CGPA: " + e.CGPA
	}
	return fmt.Sprintf("- %s: %s (%s)", e.Institution, e.Degree, period)
}

func formatSkillGroup(g resume.SkillGroup) string {
	return fmt.Sprintf("%s: %s", g.Category, strings.Join(g.Items, ", "))
}

func formatCompany(c models.Company) string {
	end := c.EndDate
	if end == "" {
		end = "Present"
	}
	return line(
		fmt.Sprintf("- %s: %s (%s - %s)", c.Name, c.Position, c.StartDate, end),
		listField("Technologies", c.Technologies, ", "),
		field("Description", c.Description),
	)
}

func formatExperience(e resume.Experience) string {
	return line(
		fmt.Sprintf("- %s: %s (%s)", e.Company, e.Role, e.Period),
		listField("Achievements", e.Achievements, "; "),
	)
}

func formatProject(p models.Project) string {
	category := p.Category
	if p.Featured {
		category += " - Featured"
	}
	return line(
		fmt.Sprintf("- %s (%s)", p.Title, category),
		listField("Technologies", p.Technologies, ", "),
		field("Description", p.Description),
		field("GitHub", p.GitHubURL),
		field("Live Demo", p.LiveURL),
	)
}

func formatResumeProject(p resume.Project) string {
	return line(
		fmt.Sprintf("- %s: %s", p.Title, p.Description),
		listField("Tech Stack", p.TechStack, ", "),
		field("Recognition", p.Recognition),
	)
}

func formatSkill(s models.Skill) string {
	return fmt.Sprintf("- %s (%s): %d%%", s.Name, s.Category, s.Level)
}

func formatDomain(d models.Domain) string {
	return fmt.Sprintf("- %s: %s", d.Title, d.Description)
}

func formatCertification(c models.Certification) string {
	return line(
		fmt.Sprintf("- %s (%s, %s)", c.Name, c.Issuer, c.Date),
		field("Category", c.Category),
		field("Status", c.Status),
		field("Expires", c.ExpiryDate),
		field("Credential", c.CredentialID),
		field("Link", c.Link),
	)
}

func formatAchievement(a models.Achievement) string {
	return line(
		fmt.Sprintf("- %s (%s, %s)", a.Title, a.Category, a.Date),
		field("Description", a.Description),
		field("Organization", a.Organization),
		field("Link", a.Link),
	)
}

func formatPublication(p resume.Publication) string {
	detail := p.Type + ", " + p.Date
	if p.Journal != "" {
		detail += ", " + p.Journal
	}
	return fmt.Sprintf("- %s (%s)", p.Title, detail)
}

func formatInvolvement(l resume.Involvement) string {
	return line(
		fmt.Sprintf("- %s: %s (%s)", l.Organization, l.Role, l.Period),
		listField("Achievements", l.Achievements, "; "),
	)
}
