// Package config loads runtime configuration for the pdfqa server and CLI.
//
// Values are resolved in increasing order of precedence: built-in defaults,
// a YAML config file, a .env file and the process environment. Environment
// names use the PDFQA_ prefix with dots replaced by underscores
// (retrieval.top_k becomes PDFQA_RETRIEVAL_TOP_K). The unprefixed names
// DATA_DIR, EMBED_MODEL, CHAT_MODEL, TOP_K, SEMANTIC_MIN_SIM,
// HYBRID_WEIGHT_SEM and HYBRID_WEIGHT_KW are honored too. API keys come
// from PDFQA_EMBEDDER_API_KEY and PDFQA_GENERATOR_API_KEY; when those are
// unset the provider packages fall back to MISTRAL_API_KEY, OPENAI_API_KEY
// or JINA_API_KEY according to the selected provider.
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	store, err := storage.Open(ctx, cfg.Store, logger)
package config
