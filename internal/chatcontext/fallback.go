package chatcontext

import (
	"fmt"
	"strings"

	"github.com/portfolio/backend/internal/resume"
)

// Greeting opens every chat transcript.
const Greeting = "Hey there! 👋 I'm the AI companion for this portfolio. Don't feel like reading the whole site? Just ask me anything about experience, projects, skills or specialized domains and I'll answer from the latest portfolio data."

// WaitingMessage is returned instead of calling the model while live data is
// still loading.
func WaitingMessage(name string) string {
	return fmt.Sprintf("I'm still loading %s's portfolio data. Please try asking your question again in a moment, or check out the different sections of the portfolio directly!", name)
}

// Fallback builds a canned reply from in-memory data, keyed loosely on what
// the question mentions. Used when the model call fails.
func Fallback(snap Snapshot, rec resume.Record, question string) string {
	name := SubjectName(snap, rec)
	q := strings.ToLower(question)

	switch {
	case strings.Contains(q, "experience") || strings.Contains(q, "work"):
		if len(snap.Companies) > 0 {
			latest := snap.Companies[0]
			return fmt.Sprintf("%s has %d work experiences. The latest is %s at %s. Check out the Experience section for more details!",
				name, len(snap.Companies), latest.Position, latest.Name)
		}
		return fmt.Sprintf("I don't have %s's work experience data loaded. Please check the Experience section on the portfolio!", name)

	case strings.Contains(q, "project"):
		if len(snap.Projects) > 0 {
			titles := make([]string, 0, 2)
			for _, p := range snap.Projects {
				if len(titles) == 2 {
					break
				}
				titles = append(titles, p.Title)
			}
			return fmt.Sprintf("%s has %d projects, including %s. Check out the Projects section!",
				name, len(snap.Projects), strings.Join(titles, " and "))
		}
		return fmt.Sprintf("I don't have %s's project data loaded. Please check the Projects section on the portfolio!", name)

	case strings.Contains(q, "skill"):
		if len(snap.Skills) > 0 {
			return fmt.Sprintf("%s has %d skills across different categories. Check out the Skills section for details!",
				name, len(snap.Skills))
		}
		return fmt.Sprintf("I don't have %s's skills data loaded. Please check the Skills section on the portfolio!", name)
	}

	return fmt.Sprintf("I'm having trouble connecting to the AI service right now. Please check out %s's portfolio sections directly, or try asking again later!", name)
}
