// SPDX-License-Identifier: EPL-2.0

// Package vorbis rebuilds standard Vorbis packets from the stripped
// forms Wwise stores in a WEM.
//
// Wwise discards the identification and comment headers entirely, strips
// the setup header down to a compact bitstream (with codebooks reduced
// to 10-bit references into an external library), and in most streams
// removes the packet-type and window bits from the front of every audio
// packet. ReconstructHeaders builds the canonical three-header set back
// up from the container's format descriptor; PacketReader walks the
// audio packets, restores their leading bits, and recovers each packet's
// granule position from the window overlap of consecutive blocks.
//
// Older WEMs embed the complete header triad instead; CopyHeaderTriad
// validates and extracts those packets without rewriting them.
//
// The granule bookkeeping follows the Vorbis overlap rule: each packet
// after the first contributes (previous blocksize + current blocksize)/4
// samples, and the final packet's position is clamped to the declared
// sample count so decoders trim the last partial frame.
package vorbis
