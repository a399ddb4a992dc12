// Package cache stores synthesized PCM so repeated letters and words do not
// hit the synthesizer again. It has an in-memory LRU tier (L1) and a
// zstd-compressed disk tier (L2) that survives restarts.
package cache
