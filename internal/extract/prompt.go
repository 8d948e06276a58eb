package extract

// systemPrompt frames the assistant's role for every extraction call.
const systemPrompt = "You extract actionable tasks and special points from markdown vault notes."

// extractionPrompt carries the categorization policy. It is configuration,
// not code: the to-do qualification rules, the completed-item exclusions,
// the single-section placement rule, and the paper-link requirement all
// live here so the pipeline never duplicates them.
const extractionPrompt = "You are an assistant that reads vault notes in markdown format. " +
	"Identify and extract actionable tasks and categorize each into exactly one of three sections: " +
	"1. To-Do Tasks, 2. Important things to follow up, 3. Papers to read. " +
	"A To-Do Task is any line that is a markdown checklist item (starts with '- [ ]'), " +
	"or contains action words like: to do, follow up, study, start, develop, explore, learn, finish, read. " +
	"Ignore tasks that have none of these keywords. " +
	"Do NOT include completed tasks (marked as '- [x]' or containing words like 'done', 'completed', 'ok', " +
	"'couldn't finish', 'ignore task', 'not a task'). " +
	"If a task fits more than one category, choose the most suitable one and never duplicate it across sections. " +
	"For 'Papers to read', only include tasks about reading or studying specific papers or articles, " +
	"and only when the note contains a link to the paper (a DOI, an arXiv or preprint URL, or a plain web URL). " +
	"For 'Important things to follow up', include tasks that need further attention, investigation, or follow-up, " +
	"and interesting notes, but not reading tasks. " +
	"Return your answer in markdown format with three sections: " +
	"## To-Do Tasks (as a markdown bullet list), " +
	"## Important things to follow up (as a markdown bullet list), and " +
	"## Papers to read (as a markdown bullet list). " +
	"If nothing is found for a category, leave that section empty. " +
	"Do not write placeholder items such as 'No items found.'\n\n"
