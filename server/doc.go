// Package server exposes the HTTP API: document upload and administration,
// processing triggers, the customer chat endpoint, and the conversation
// log. Responses are JSON; CORS is permissive so the marketing site can
// call the API directly from the browser.
package server
