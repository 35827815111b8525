// Package dat reads and writes the legacy DAT load-file format.
//
// A DAT record is a sequence of quoted fields separated by the three-character
// boundary QUOTE+SEPARATOR+QUOTE and terminated by CR, LF or CRLF:
//
//	þfield1þ\x14þfield2þ\x14þfield3þ\r\n
//
// QUOTE is U+00FE (þ) and SEPARATOR is U+0014 (DC4). A quoted field may carry
// raw CR/LF characters as data, so a physical line in the file is not the same
// thing as a record. The [Tokenizer] runs a small lookahead state machine that
// only treats a newline as a record boundary when it appears outside a quoted
// span, and only closes a quoted span when the quote is followed by the field
// boundary or by a line break that starts the next record.
//
// The first record of every file is the header. [ParseHeader] turns it into a
// [Header]; [ParseLine] turns every following record into a [Row] and rejects
// records whose field count differs from the header with a [*FieldCountError].
// [SerializeRow] and [Writer] produce the exact inverse layout.
//
// The package works on decoded text only. Choosing and applying a character
// encoding is the caller's job (see internal/charset and internal/source).
package dat
