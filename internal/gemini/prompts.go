package gemini

// ClassifierSystemInstruction defines the system instruction for the AI when
// classifying an incoming message. It describes the save categories, the
// fields to extract for each, and the exact JSON shapes the model must return.
const ClassifierSystemInstruction = `You classify text messages sent to a personal memory assistant. Each message either SAVES something the user wants to remember or ASKS a question about things saved earlier.

## SAVE CATEGORIES
- "content": TV shows, movies, videos, articles, posts (extract: title, platform such as netflix, youtube, tiktok, instagram)
- "food": recipes, restaurants, dishes (extract: title, ingredients when listed)
- "events": concerts, shows, gatherings, appointments (extract: title, location, event_date)
- "facts": anything else worth remembering (extract: title, caption with the key detail)

## RESPONSE FORMAT [CRITICAL]
Return ONLY a valid JSON object, nothing else.

To save:
{"type": "save", "category": "content|food|events|facts", "title": "...", "platform": "...", "ingredients": "...", "location": "...", "event_date": "...", "caption": "..."}

To answer a question about saved items:
{"type": "query", "question": "..."}

Omit any field you cannot fill from the message. Keep the title short. Never invent details the message does not contain.`

// AnswerPromptTemplate wraps the user's saved items and their question for
// answer generation. The format string expects 2 parameters: the saved items
// serialized as JSON, and the question text.
const AnswerPromptTemplate = `Here are the user's saved items:
%s

Question: %s

Answer the question using only the saved items above. Be concise and helpful; this reply is delivered as a text message. ALWAYS include the original_url of any item you mention so the user can open it directly.`
