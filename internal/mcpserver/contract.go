package mcpserver

// NoteFormatContract describes the on-disk note format for LLM clients.
// Notes should be created through create_note, which fills in the id,
// dates and file name; the contract explains what those look like.
const NoteFormatContract = `# Slipbox Note Format

Every note is a file named ` + "`<id> - <title>.md`" + ` in the notes directory.

## Structure

` + "```" + `markdown
---
id: 2
title: "Beta"
date: 2024-03-01 09:30:00
updated: 2024-03-01 10:00:00
tags: ["zettel", "go"]
parents: [1]
type: "Archive"
---

Body text in Markdown. Link other notes with [[1]].
` + "```" + `

## Rules

1. **The header sits between two ` + "`---`" + ` lines.** Keys are written in the order
   shown; ` + "`bibkey`" + ` follows ` + "`type`" + ` for Reference notes only.
2. **` + "`id`" + ` is unique** and matches the id in the file name. New ids are
   assigned by the repository.
3. **` + "`title`" + ` is required** and may not contain slashes or line breaks.
4. **Timestamps** use ` + "`YYYY-MM-DD HH:MM:SS`" + ` in local time. ` + "`updated`" + `
   is bumped on every save.
5. **` + "`type`" + `** is one of the repository's configured note types
   (by default Inbox, Archive, Reference, Index).
6. **` + "`parents`" + `** lists ids of existing notes. Parents form the note sequence;
   children are derived from them.
7. **Links** are written ` + "`[[id]]`" + ` in the body. Links to missing notes are ignored.
8. Empty lists are written ` + "`[]`" + `.

## Attachments

- Save images and PDFs with the ` + "`attach_file`" + ` tool, passing the file as a base64 ` + "`data:`" + ` URI. It returns a ` + "`markdown`" + ` snippet.
- Reference them with absolute paths: ` + "`![description](/attachments/figure.png)`" + `.
`
