// Package scout defines core types shared across the discovery pipeline.
package scout
