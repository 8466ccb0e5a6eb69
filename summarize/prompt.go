package summarize

const promptTemplate = `You are a job summarization assistant.

I will give you detailed information about a job posting. Your task is to generate a compact, Telegram-ready job notification message. The message should be:

1. Scannable on mobile.
2. Concise (no more than ~150 words).
3. Include the following sections:
- Job Title & Focus
- Type & Hours
- Salary
- Company / Industry (optional)
- Key Responsibilities (2-3 bullets max)
- Key Requirements (2-3 bullets max)
- Bonus Skills (if relevant)
- Link / CTA (if provided)

Use short, clear bullet points where appropriate. Keep formatting readable and professional. Do not include unnecessary details.
IMPORTANT:
- Do NOT include any preamble, introduction, or phrases like "Here is a compact Telegram-ready job summary" or "Summary:".
- Output ONLY the final Telegram message in the requested format.
- Start directly with the job title or emoji heading.

Here is the job information:

`

// buildPrompt renders the fixed summarization prompt for one posting.
func buildPrompt(overview, link string) string {
	prompt := promptTemplate + overview
	if link != "" {
		prompt += "\nApply here: " + link
	}
	return prompt
}
