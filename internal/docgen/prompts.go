package docgen

import "strings"

const promptFooter = "Output only the rewritten passage, no preamble or explanation."

var prompts = map[Kind]string{
	KindFocus: `Given this fictional passage, write a version (Doc A) centred on ONE main character or suspect.
Keep the same event but stress that character's involvement with concrete details.

Steps:
1. Identify the characters or suspects.
2. Pick the first or most prominent one.
3. Retell the event around that character's role, with specific times, actions and places that implicate them.
4. Keep it about as long as the original.`,

	KindContradiction: `Given this fictional passage, write a contradictory version (Doc B) centred on a DIFFERENT character or suspect.

Steps:
1. Identify the characters or suspects.
2. Pick one other than the most prominent.
3. Retell the same event around this character instead.
4. Give details (times, places, actions) that conflict with the original.
5. Keep it about as long as the original.`,

	KindFaulty: `Given this fictional passage, write a faulty version (Doc C) that contradicts itself.

Steps:
1. Keep the same general story.
2. Introduce internal inconsistencies: an event at 9pm and later at 11pm, Tuesday in one place and Wednesday in another, a location that shifts.
3. Make it read like careless reporting; the errors should look like mistakes, not fiction.
4. Keep it about as long as the original.`,

	KindIrrelevant: `Given this fictional passage, write an irrelevant version (Doc D): same topic, different event or timeframe.

Steps:
1. Identify the general domain (museum theft, corporate scandal and so on).
2. Describe a related but separate event, on a different date or in a different place.
3. It should look relevant to a search yet say nothing useful about the original event.
4. Keep the length and style similar.`,

	KindMisreport: `Given this fictional passage, write a misreporting or meta version (Doc E). Choose one approach.

Misreporting: report the same event with wrong timestamps, dates or places, like second-hand journalism. The story stays recognisable.

Meta: write about the conflicting accounts themselves, note that several contradictory versions exist, and take no stance on what happened.

Keep it about as long as the original.`,
}

func buildPrompt(instructions, passage string) string {
	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\nBase passage:\n")
	sb.WriteString(passage)
	sb.WriteString("\n\n")
	sb.WriteString(promptFooter)
	return sb.String()
}
