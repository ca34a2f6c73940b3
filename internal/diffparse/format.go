package diffparse

import (
	"fmt"
	"strings"
)

// Format renders a ChangeSet back to unified diff text. Formatting a
// parsed change set and re-parsing it yields the same file paths and
// line counts.
func Format(cs *ChangeSet) string {
	var b strings.Builder

	for _, f := range cs.Files {
		oldName := f.Path
		newName := f.Path
		if f.OldPath != "" {
			oldName = f.OldPath
		}

		fmt.Fprintf(&b, "diff --git a/%s b/%s\n", oldName, newName)

		switch f.Kind {
		case ChangeAdded:
			b.WriteString("new file mode 100644\n")
		case ChangeDeleted:
			b.WriteString("deleted file mode 100644\n")
		case ChangeRenamed:
			fmt.Fprintf(&b, "rename from %s\n", oldName)
			fmt.Fprintf(&b, "rename to %s\n", newName)
		}

		if f.Binary {
			fmt.Fprintf(&b, "Binary files a/%s and b/%s differ\n", oldName, newName)
			continue
		}
		if len(f.Hunks) == 0 {
			continue
		}

		if f.Kind == ChangeAdded {
			b.WriteString("--- /dev/null\n")
		} else {
			fmt.Fprintf(&b, "--- a/%s\n", oldName)
		}
		if f.Kind == ChangeDeleted {
			b.WriteString("+++ /dev/null\n")
		} else {
			fmt.Fprintf(&b, "+++ b/%s\n", newName)
		}

		for _, h := range f.Hunks {
			section := ""
			if h.Section != "" {
				section = " " + h.Section
			}
			fmt.Fprintf(&b, "@@ -%s +%s @@%s\n",
				hunkRange(h.OldStart, h.OldLines), hunkRange(h.NewStart, h.NewLines), section)
			for _, l := range h.Lines {
				switch l.Kind {
				case LineAdded:
					b.WriteString("+")
				case LineRemoved:
					b.WriteString("-")
				default:
					b.WriteString(" ")
				}
				b.WriteString(l.Content)
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

func hunkRange(start, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}
