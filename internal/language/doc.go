// Package language normalizes the language hint handed to the transcription
// engine and the language codes it reports back.
//
// Table lookups cover ISO 639-1/639-2 codes and the English word forms the
// engine accepts; everything else is parsed as a BCP 47 tag so regional
// variants collapse to their base language.
package language
