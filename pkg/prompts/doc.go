// Package prompts builds the language model prompts that drive knowledge
// graph construction: entity extraction, fact extraction, entity
// deduplication, edge invalidation, and entity summarization.
//
// Every builder returns a []llm.Message pair (system + user) ready to send
// through an llm.Client. Context data is serialized into the prompt in a
// configurable Format (JSON by default, YAML optionally), and the expected
// response shape is described inline so responses can be decoded into the
// typed models in this package via Parse.
package prompts
