package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/omr-tools/mcq-scan/internal/config"
	"github.com/omr-tools/mcq-scan/internal/export"
	"github.com/omr-tools/mcq-scan/internal/imaging"
	"github.com/omr-tools/mcq-scan/internal/scan"
	"github.com/omr-tools/mcq-scan/internal/sheet"
	"github.com/omr-tools/mcq-scan/internal/template"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("mcq-scan %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		}
	}

	// Logging goes to stderr so stdout stays clean for piped results.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "generate":
		err = runGenerate(os.Args[2:])
	case "fill":
		err = runFill(os.Args[2:])
	case "scan":
		err = runScan(os.Args[2:])
	case "export":
		err = runExport(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func printUsage() {
	fmt.Println("mcq-scan - optical mark recognition for multiple-choice answer sheets")
	fmt.Println()
	fmt.Println("Usage: mcq-scan <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  generate   Render a blank answer sheet image from a template")
	fmt.Println("  fill       Simulate a filled sheet for pipeline testing")
	fmt.Println("  scan       Scan a sheet photograph and write the answer map")
	fmt.Println("  export     Append a scanned answer JSON file to a results CSV")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Run 'mcq-scan <command> -h' for command-specific options.")
	fmt.Println()
	fmt.Println("Environment variables (override defaults, see also .env):")
	fmt.Println("  MCQ_SCAN_MARK_THRESHOLD      Confident-mark fill ratio (default 0.45)")
	fmt.Println("  MCQ_SCAN_LOW_THRESHOLD       Minimum marked fill ratio (default 0.20)")
	fmt.Println("  MCQ_SCAN_TIE_EPSILON         Ambiguity margin between marks (default 0.03)")
	fmt.Println("  MCQ_SCAN_BINARIZE_THRESHOLD  Fixed dark cutoff 1-255, 0 = auto Otsu")
	fmt.Println("  MCQ_SCAN_DEBUG               Write canonical and overlay artifacts")
	fmt.Println("  MCQ_SCAN_OUTPUT_DIR          Output directory (default .)")
	fmt.Println("  MCQ_SCAN_OUTPUT_FILE         Answer JSON filename")
}

// loadTemplate reads a sheet layout from a JSON file, or returns the stock
// A4 layout when no path is given.
func loadTemplate(path string) (*template.Sheet, error) {
	if path == "" {
		return template.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	tpl := template.Default()
	if err := json.Unmarshal(data, tpl); err != nil {
		return nil, fmt.Errorf("invalid template JSON in %s: %w", path, err)
	}
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	return tpl, nil
}

func runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	tplPath := fs.String("template", "", "sheet template JSON (default: built-in A4 layout)")
	out := fs.String("out", "answer_sheet.png", "output image path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tpl, err := loadTemplate(*tplPath)
	if err != nil {
		return err
	}
	img, err := sheet.Render(tpl)
	if err != nil {
		return err
	}
	if err := imaging.Save(img, *out); err != nil {
		return err
	}
	log.Printf("wrote blank sheet (%d questions, %d options) to %s", tpl.Questions, tpl.Options, *out)
	return nil
}

// loadMarks reads an answer key: 1-based question numbers mapped to option
// letters, e.g. {"1": ["A"], "7": ["B", "C"]}.
func loadMarks(path string, tpl *template.Sheet) (map[int][]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read answer key %s: %w", path, err)
	}
	var key map[string][]string
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("invalid answer key JSON in %s: %w", path, err)
	}

	marks := make(map[int][]int, len(key))
	for q, letters := range key {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > tpl.Questions {
			return nil, fmt.Errorf("answer key question %q out of range 1..%d", q, tpl.Questions)
		}
		for _, letter := range letters {
			k := strings.Index(template.OptionLetters[:tpl.Options], letter)
			if len(letter) != 1 || k < 0 {
				return nil, fmt.Errorf("answer key question %q has unknown option %q", q, letter)
			}
			marks[n-1] = append(marks[n-1], k)
		}
	}
	return marks, nil
}

func runFill(args []string) error {
	fs := flag.NewFlagSet("fill", flag.ExitOnError)
	tplPath := fs.String("template", "", "sheet template JSON (default: built-in A4 layout)")
	in := fs.String("in", "", "blank sheet image (default: render one from the template)")
	out := fs.String("out", "filled_sheet.png", "output image path")
	marksPath := fs.String("marks", "", "answer key JSON (default: random marks)")
	seed := fs.Int64("seed", 1, "random seed for mark placement and noise")
	skip := fs.Float64("skip", 0.1, "probability a question is left blank (random marks only)")
	intensity := fs.Float64("intensity", 0.8, "mark darkness in (0,1]")
	noise := fs.Bool("noise", true, "add pencil-texture noise to marks")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tpl, err := loadTemplate(*tplPath)
	if err != nil {
		return err
	}

	var blank image.Image
	if *in != "" {
		blank, err = imaging.Open(*in)
	} else {
		blank, err = sheet.Render(tpl)
	}
	if err != nil {
		return err
	}

	var marks map[int][]int
	if *marksPath != "" {
		marks, err = loadMarks(*marksPath, tpl)
		if err != nil {
			return err
		}
	} else {
		marks = sheet.RandomMarks(tpl, *skip, *seed)
	}
	opts := sheet.FillOptions{Intensity: *intensity, Noise: *noise, Seed: *seed}
	filled := sheet.Fill(blank, tpl, marks, opts)

	if err := imaging.Save(filled, *out); err != nil {
		return err
	}
	log.Printf("wrote simulated sheet (%d of %d questions marked) to %s", len(marks), tpl.Questions, *out)
	return nil
}

func runScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	tplPath := fs.String("template", "", "sheet template JSON (default: built-in A4 layout)")
	in := fs.String("in", "", "sheet photograph to scan (required)")
	canonical := fs.Bool("canonical", false, "input is already rectified, skip marker alignment")
	csvPath := fs.String("csv", "", "also append the answers to this CSV file")
	debug := fs.Bool("debug", false, "write canonical and overlay debug artifacts")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("-in is required")
	}

	tpl, err := loadTemplate(*tplPath)
	if err != nil {
		return err
	}
	cfg := config.FromEnv()
	if *debug {
		cfg.Debug = true
	}

	img, err := imaging.Open(*in)
	if err != nil {
		return err
	}

	var result *scan.Result
	if *canonical {
		result, err = scan.RunCanonical(img, tpl, cfg)
	} else {
		result, err = scan.Run(img, tpl, cfg)
	}
	if err != nil {
		return err
	}

	path, err := export.SaveJSON(result.Answers, cfg.OutputDir, cfg.OutputFilename)
	if err != nil {
		return err
	}
	log.Printf("run %s: %d questions scanned, %d low-confidence marks, answers in %s",
		result.RunID, len(result.Answers), result.LowConfidence, path)

	if *csvPath != "" {
		if err := export.AppendCSV(export.AnswerMap(result.Answers), *csvPath, tpl.Questions); err != nil {
			return err
		}
		log.Printf("appended row to %s", *csvPath)
	}
	return nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	in := fs.String("in", "scanned_answers.json", "answer JSON file to export")
	csvPath := fs.String("csv", "results.csv", "CSV file to append to")
	questions := fs.Int("questions", template.Default().Questions, "number of question columns")
	if err := fs.Parse(args); err != nil {
		return err
	}

	answers, err := export.LoadJSON(*in)
	if err != nil {
		return err
	}
	if err := export.AppendCSV(answers, *csvPath, *questions); err != nil {
		return err
	}
	log.Printf("appended %s to %s (%d columns)", *in, *csvPath, *questions)
	return nil
}
