// Package llm sends a conversational Prompt to one of several LLM providers and
// returns one normalized assistant Message.
//
// OpenAI-compatible APIs (OpenAI, Azure OpenAI, Mistral, Groq, Cerebras), Ollama
// and Anthropic are reached with a plain JSON POST; Bedrock goes through the AWS
// SDK's InvokeModel. Callers only see Client.Send and never need to know which
// wire dialect, auth header or response envelope a provider uses.
package llm
