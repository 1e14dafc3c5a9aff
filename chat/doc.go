// Package chat answers customer support questions from the knowledge base.
//
// A Responder ties together similarity search, context assembly, and chat
// completion: the question is matched against stored chunk embeddings, the
// best matches are packed into the system prompt by an Assembler, and a
// single completion call produces the answer. When nothing relevant is
// found (or the search itself fails) a static description of the business
// is substituted so the assistant stays useful even over an empty
// knowledge base. Every exchange is recorded in the conversation log.
package chat
