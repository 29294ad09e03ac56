package mcpserver

// NoteGuideURI identifies the note guide resource.
const NoteGuideURI = "notas://note-guide"

// NoteGuide describes the fields and rules that LLM consumers should follow
// when creating or changing notes.
const NoteGuide = `# notas Note Guide

Every note belongs to exactly one user: the holder of the token this server
was started with. Other users' notes are invisible unless they are public.

## Fields

| Field         | Required | Rules                                              |
|---------------|----------|----------------------------------------------------|
| ` + "`title`" + `       | yes      | 1 to 255 characters; surrounding spaces are trimmed |
| ` + "`body`" + `        | yes      | plain text, must not be blank                      |
| ` + "`category_id`" + ` | yes      | id of an existing category, see ` + "`list_categories`" + ` |
| ` + "`is_public`" + `   | no       | defaults to false                                  |

## Visibility

1. New notes are **private** unless ` + "`is_public`" + ` is true.
2. A public note can be read by anyone with ` + "`read_public_note`" + `, including
   callers without an account. Its author is shown by email.
3. ` + "`set_note_visibility`" + ` is idempotent: setting the current value again
   changes nothing.

## Errors

- A note that does not exist and a note owned by someone else both report
  "note not found". Do not retry with other ids to probe ownership.
- "category does not exist" means ` + "`category_id`" + ` is wrong; call
  ` + "`list_categories`" + ` and pick one of the returned ids.

## Categories

The category set is fixed: Personal, Work, Study, Ideas, Reminders, Recipes,
Travel and Books.
`
