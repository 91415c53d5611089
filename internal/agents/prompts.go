package agents

// CompletionPhrase is the exact reply the critic must give when the
// artifact needs no further work. Anything else counts as feedback.
const CompletionPhrase = "No major issues found."

// GrammarCleanPhrase is the grammar checker's all-clear reply.
const GrammarCleanPhrase = "Grammar is good!"

const draftPrompt = `You are a writer. Write a short piece of around 100 words on the topic below.
Output only the piece itself, with no preamble, headings, or explanations.

Topic: %s`

const critiquePrompt = `You are a critic. Review the piece below against its topic.

Topic: %s

Piece:
%s

If you find specific, important issues, reply with one or two sentences of
constructive criticism focused on structure, substance, or clarity.
If the piece is a solid, complete treatment of the topic with no major
problems, reply exactly with the phrase "%s" and nothing else.

Output only the criticism or the exact phrase.`

const revisePrompt = `You are a reviser. Improve the piece below by applying the criticism.

Topic: %s

Piece:
%s

Criticism:
%s

Output only the complete revised piece. Do not add explanations.`

const grammarPrompt = `You are a grammar checker. Check the grammar of the piece below.
Output only the suggested corrections as a list, or output '%s' if there
are no errors.

Piece:
%s`

const tonePrompt = `You are a tone analyzer. Analyze the tone of the piece below.
Output only one word: 'positive' if the tone is generally positive,
'negative' if the tone is generally negative, or 'neutral' otherwise.

Piece:
%s`
