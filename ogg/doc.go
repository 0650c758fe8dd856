// SPDX-License-Identifier: EPL-2.0

// Package ogg writes Ogg pages for a single logical bitstream.
//
// The Writer accepts whole packets and handles segmentation: packets are
// grouped onto a page until its 255-entry lacing table fills, and a
// packet larger than one page spans pages with the continuation flag
// set. Each page's granule position is that of the last packet completed
// on it, or the -1 sentinel for a page holding only the middle of a
// spanning packet. The first emitted page carries the
// beginning-of-stream flag; the page holding the final packet carries
// end-of-stream.
//
//	w := ogg.NewWriter(out, serial)
//	w.WritePacket(ident, 0, false)
//	w.Flush()                        // identification page stands alone
//	w.WritePacket(comment, 0, false)
//	w.WritePacket(setup, 0, false)
//	w.Flush()
//	for ... {
//	    w.WritePacket(audio, granule, last)
//	}
//	w.Close()
//
// Ogg uses a CRC-32 with polynomial 0x04C11DB7 and no bit reflection,
// which hash/crc32 cannot produce; the table lives in this package.
package ogg
