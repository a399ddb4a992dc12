package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/muesli/gitcha"
	"github.com/spf13/cobra"

	"github.com/learnlink/learnlink/internal/trainer"
)

var (
	lessonExtensions = []string{"*.md", "*.mdown", "*.mkdn", "*.mkd", "*.markdown"}

	lessonsAll bool

	lessonsCmd = &cobra.Command{
		Use:   "lessons [DIR]",
		Short: "Find markdown lessons in a directory",
		Long: paragraph(fmt.Sprintf("\nList the markdown lessons below DIR (default: the current directory) with their titles, ready for %s.",
			keyword("learnlink read"))),
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			lessons, err := findLessons(dir, lessonsAll)
			if err != nil {
				return err
			}
			if len(lessons) == 0 {
				fmt.Println(dimStyle.Render("No lessons found."))
				return nil
			}
			for _, l := range lessons {
				title := l.title
				if title == "" {
					title = dimStyle.Render("(untitled)")
				}
				fmt.Printf("%s  %s %s\n", keyword(l.path), title,
					dimStyle.Render(fmt.Sprintf("· %d sentences", l.sentences)))
			}
			return nil
		},
	}
)

type lessonFile struct {
	path      string
	title     string
	sentences int
}

// findLessons walks dir for markdown files that contain at least one
// sentence. Unless all is set, files ignored by git are skipped.
func findLessons(dir string, all bool) ([]lessonFile, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	var ch chan gitcha.SearchResult
	if all {
		ch, err = gitcha.FindAllFilesExcept(abs, lessonExtensions, nil)
	} else {
		ch, err = gitcha.FindFilesExcept(abs, lessonExtensions, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to search %s: %w", dir, err)
	}

	var lessons []lessonFile
	for res := range ch {
		data, err := os.ReadFile(res.Path)
		if err != nil {
			log.Debug("Skipping unreadable file", "path", res.Path, "error", err)
			continue
		}
		lesson := trainer.ParseLesson(data)
		if len(lesson.Sentences) == 0 {
			continue
		}
		lessons = append(lessons, lessonFile{
			path:      relativePath(res.Path, abs),
			title:     lesson.Title,
			sentences: len(lesson.Sentences),
		})
	}

	sort.Slice(lessons, func(i, j int) bool {
		return lessons[i].path < lessons[j].path
	})
	return lessons, nil
}

func relativePath(path, dir string) string {
	fp, _ := filepath.EvalSymlinks(path)
	dp, _ := filepath.EvalSymlinks(dir)
	return strings.TrimPrefix(fp, dp+string(os.PathSeparator))
}

func init() {
	lessonsCmd.Flags().BoolVarP(&lessonsAll, "all", "a", false, "include files ignored by git")
}
