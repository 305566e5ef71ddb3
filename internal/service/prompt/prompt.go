// Package prompt composes the ordered instruction sequence sent to the
// model. Composition is pure: the same validated input always yields the
// same fragments in the same order.
package prompt

import (
	"fmt"
	"strconv"
)

const generalInstruction = `You are a helpful lesson planning assistant designed for helping design a lesson plan for a classroom. Design the lesson plan on the users topic the closest you can.`

// Compose builds the instruction sequence: the general instruction, a
// grade-level fragment, optional subject and duration fragments, and the raw
// user message last. The caller is responsible for validating in first.
func Compose(in Input) []string {
	fragments := make([]string, 0, 5)
	fragments = append(fragments, generalInstruction, gradeLevelFragment(in.GradeLevel))
	if in.Subject != "" {
		fragments = append(fragments, subjectFragment(in.Subject))
	}
	if in.DurationMinutes > 0 {
		fragments = append(fragments, durationFragment(in.DurationMinutes))
	}
	return append(fragments, in.Message)
}

// gradeLevelFragment special-cases the post-secondary tag, which has no
// numeric grade to name.
func gradeLevelFragment(gradeLevel string) string {
	if gradeLevel == PostSecondary {
		return `The lesson plan should be designed for a post-secondary classroom. Included topics, ideas, and activities should be relevant to relatable and engaging to post-secondary students.`
	}
	return fmt.Sprintf(`The lesson plan should be designed for a grade %s classroom. Included topics, ideas, and activities should be relevant to grade %s students.`, gradeLevel, gradeLevel)
}

func subjectFragment(subject string) string {
	return fmt.Sprintf(`The lesson plan should be structured around %s. Included topics, ideas, and activities should be relevant to %s.`, subject, subject)
}

func durationFragment(minutes int) string {
	length := strconv.Itoa(minutes)
	return fmt.Sprintf(`The lesson plan should be designed to last %s minutes. Included topics, ideas, and activities should be engaging and relevant to the time length.`, length)
}
