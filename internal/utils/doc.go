// Package utils holds the CLI plumbing shared by commands: the Viper-backed
// ConfigurationLoader, the zap LoggerFactory, context accessors for
// per-invocation values, and a flushing writer for progress output.
package utils
