package mcpserver

// LayoutURI identifies the knowledge base layout resource.
const LayoutURI = "localshelf://layout"

// ShelfLayout describes how a Local Shelf knowledge base is organised so
// LLM consumers can interpret pages, journals and links.
const ShelfLayout = `# Local Shelf Knowledge Base Layout

## Directories

- ` + "`pages/`" + ` holds every stowed file, flat, under its original name.
- ` + "`journals/`" + ` holds one file per day named ` + "`YYYY_MM_DD.md`" + `.

## Name collisions

A file whose name is already taken in ` + "`pages/`" + ` is stored as
` + "`<stem>_<token><ext>`" + `, where token is 16 lowercase hex digits derived from the
time of the move. Should that also be taken, ` + "`<stem>_<token>_<n><ext>`" + ` is used
with n counting up from 1. Existing pages are never overwritten.

## Journal entries

Each stowed file appends one line to the journal of the day it was stowed:

` + "```" + `markdown
- **14:30** [[article]]
` + "```" + `

The time is local 24-hour HH:MM. The link target is the stored file name
without its extension, so it always points at the page as it exists in
` + "`pages/`" + `, including any collision suffix. Journals are append-only.

## Backlinks

` + "`get_backlinks`" + ` lists every page or journal containing ` + "`[[name]]`" + `. For a stowed
page this includes the journal day it arrived on.
`
