package chat

// basePrompt grounds every completion. It describes the business and
// instructs the model to answer from the supplied context rather than
// from prior knowledge.
const basePrompt = `You are a customer support assistant for Practical AI & ML.
You help customers with questions about our services, including:

1. Full-stack development with our prototype-first approach
2. AI consulting and implementation
3. Data analysis and machine learning solutions

Key points about our services:
- We focus on delivering value early through functional prototypes
- We transfer code ownership to clients via GitHub
- We implement enterprise-grade security and best practices
- We offer continuous support and maintenance

Answer using only the context information below. Do not answer from prior
knowledge, and do not invent details that are not in the context.

If you cannot confidently answer a question based on this information, respond with:
"I apologize, but I'm not able to provide a complete answer to your question. Please email us at support@practicalaiml.com.au for detailed assistance."`

// fallbackInstruction is appended to the system prompt when no chunks were
// retrieved and the static fallback context is in use.
const fallbackInstruction = `The context below is general background about the business, not material
retrieved for this specific question. If it does not cover the question, say
so plainly and direct the customer to support@practicalaiml.com.au instead of
guessing.`

// contextHeader introduces retrieved excerpts in the system prompt.
const contextHeader = "Here is relevant information from our knowledge base:\n\n"

// fallbackHeader introduces the static fallback context.
const fallbackHeader = "General information about our services:\n\n"

// FallbackContext stands in for retrieved content when the knowledge base
// has no match for the question. It must stay non-empty so the assistant
// remains functional before any documents are uploaded.
const FallbackContext = `Practical AI & ML is a software consultancy offering:
- Full-stack development with a prototype-first approach: clients see a
  working prototype early and iterate toward production from there.
- AI consulting and implementation, from feasibility assessment through
  deployed models.
- Data analysis and machine learning solutions tailored to specific
  business problems.

Engagement terms:
- Code ownership is transferred to the client via GitHub.
- Enterprise-grade security and engineering best practices are applied
  throughout.
- Continuous support and maintenance plans are available after delivery.

Contact: support@practicalaiml.com.au`

// systemPrompt composes the full system instruction from the base prompt,
// the assembled context, and the fallback flag.
func systemPrompt(context string, fallback bool) string {
	if fallback {
		return basePrompt + "\n\n" + fallbackInstruction + "\n\n" + context
	}
	return basePrompt + "\n\n" + context
}
