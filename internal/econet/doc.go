// Package econet implements the Plum ecoNET serial protocol as spoken by
// ecoMAX boiler controllers behind an RS485-to-Ethernet converter.
//
// # Wire format
//
// Every message is a single frame:
//
//	0x68 | len(u16 LE) | dest(u16 LE) | src(u16 LE) | func(u8) | payload | crc(u16 BE) | 0x16
//
// len counts dest through payload (5 + payload bytes). The CRC is
// CRC-16/CCITT (poly 0x1021, init 0) over len through payload. The converter
// is a dumb byte pipe, so received data may contain garbage between frames;
// the Scanner resynchronises on the start byte and discards anything that
// fails CRC validation.
//
// # Register map
//
// Controllers expose registers ("params") addressed by a 16-bit id. The
// mapping from stable slugs (e.g. "tempcwu") to ids, value types and scaling
// exponents is firmware-specific and loaded from a JSON map file. Decoded
// values are scaled by 10^exponent.
//
// # Device handle
//
// Device ties the pieces together: it loads the map, issues read-value
// (0x43) and forced-write (0x29) transactions over a per-transaction TCP
// connection, retries with linear backoff, and remembers the last value
// successfully read for each slug.
package econet
