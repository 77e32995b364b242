package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"time"

	"menu-planner/internal/app"
	"menu-planner/internal/catalog"
	"menu-planner/internal/checked"
	"menu-planner/internal/clipper"
	"menu-planner/internal/config"
	"menu-planner/internal/database"
	"menu-planner/internal/localstore"
	"menu-planner/internal/menu"
	"menu-planner/internal/metrics"
	"menu-planner/internal/notify"
	"menu-planner/internal/recipe"
	"menu-planner/internal/shopping"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	local, err := localstore.New(cfg.LocalStoreDir)
	if err != nil {
		log.Fatalf("Failed to initialize local store: %v", err)
	}

	tables, err := shopping.LoadTables()
	if err != nil {
		log.Fatalf("Failed to load shopping tables: %v", err)
	}

	recipeRepo := recipe.NewRepository(db.SQL)
	menuRepo := menu.NewRepository(db.SQL)
	savedRepo := recipe.NewSavedRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)
	checkedStore := checked.NewStore(local)

	// With a remote catalog, fetched recipes are mirrored into the local
	// repository so menu resolution and search keep working, and imports
	// write through to the remote admin API.
	var cat catalog.Client
	var saver clipper.RecipeSaver = recipeRepo
	if cfg.CatalogURL != "" {
		remote := catalog.NewHTTPClient(cfg.CatalogURL, cfg.CatalogKey, cfg.CatalogAdminKey)
		cat = catalog.NewMirroringClient(remote, recipeRepo)
		if w, ok := remote.(catalog.Writer); ok {
			saver = catalog.NewWriteThroughSaver(w, recipeRepo)
		}
	} else {
		cat = catalog.NewStoreClient(recipeRepo)
	}

	now := uint64(time.Now().UnixNano())
	application := app.NewApp(
		cfg,
		cat,
		recipeRepo,
		menuRepo,
		savedRepo,
		shopping.NewAggregator(tables),
		checkedStore,
		local,
		metricsStore,
		clipper.NewClipper(saver),
		notify.LogNotifier{},
		rand.New(rand.NewPCG(now, now>>32)),
	)

	application.Login(cfg.UserID)
	if err := application.Bootstrap(ctx); err != nil {
		log.Fatalf("Bootstrap failed: %v", err)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		generateCmd := flag.NewFlagSet("generate", flag.ExitOnError)
		sel := generateCmd.String("select", "", "slots to fill, e.g. \"monday:lunch,dinner;tuesday:dinner\"")
		save := generateCmd.Bool("save", false, "save the menu after generating")
		name := generateCmd.String("name", "", "menu name to save under")
		generateCmd.Parse(os.Args[2:])

		if *sel != "" {
			selection, err := menu.ParseSelection(*sel)
			if err != nil {
				log.Fatalf("Invalid selection: %v", err)
			}
			applySelection(application, selection)
		}

		if err := application.GenerateMenu(ctx); err != nil {
			log.Fatalf("Generation failed: %v", err)
		}
		printSlots(application.Slots())

		if *save {
			if err := application.CommitMenu(ctx, *name); err != nil {
				log.Fatalf("Save failed: %v", err)
			}
		}

	case "menu":
		printSlots(application.Slots())

	case "search":
		searchCmd := flag.NewFlagSet("search", flag.ExitOnError)
		category := searchCmd.String("category", "", "meal category")
		diet := searchCmd.String("diet", "", "diet tag")
		title := searchCmd.String("title", "", "title substring")
		maxPrep := searchCmd.Int("max-prep", 0, "maximum preparation minutes")
		searchCmd.Parse(os.Args[2:])

		results, err := application.SearchCatalog(ctx, recipe.Filter{
			Category:       *category,
			Diet:           *diet,
			TitleLike:      *title,
			MaxPrepMinutes: *maxPrep,
		})
		if err != nil {
			log.Fatalf("Search failed: %v", err)
		}
		for _, r := range results {
			fmt.Printf("%s  %s (%s, %d min)\n", r.ID, r.Title, r.Category, r.PrepMinutes)
		}

	case "replace":
		replaceCmd := flag.NewFlagSet("replace", flag.ExitOnError)
		replaceCmd.Parse(os.Args[2:])
		if replaceCmd.NArg() < 3 {
			log.Fatal("Usage: replace <day> <meal> <recipe-id>")
		}
		day, err := menu.ParseDay(replaceCmd.Arg(0))
		if err != nil {
			log.Fatalf("Invalid day: %v", err)
		}
		meal, err := menu.ParseMeal(replaceCmd.Arg(1))
		if err != nil {
			log.Fatalf("Invalid meal: %v", err)
		}
		if err := application.ReplaceSlot(ctx, day, meal, replaceCmd.Arg(2)); err != nil {
			log.Fatalf("Replace failed: %v", err)
		}

	case "sync":
		if err := application.SyncCatalog(ctx); err != nil {
			log.Fatalf("Catalog refresh failed: %v", err)
		}

	case "shopping-list":
		listCmd := flag.NewFlagSet("shopping-list", flag.ExitOnError)
		export := listCmd.String("export", "", "write the list to an .xlsx file")
		listCmd.Parse(os.Args[2:])

		if *export != "" {
			f, err := os.Create(*export)
			if err != nil {
				log.Fatalf("Failed to create %s: %v", *export, err)
			}
			defer f.Close()
			if err := application.ExportShoppingList(ctx, f); err != nil {
				log.Fatalf("Export failed: %v", err)
			}
			return
		}

		list, err := application.BuildShoppingList(ctx)
		if err != nil {
			log.Fatalf("Failed to build shopping list: %v", err)
		}
		printList(application, list)

	case "check":
		checkCmd := flag.NewFlagSet("check", flag.ExitOnError)
		clear := checkCmd.Bool("clear", false, "reset all checkmarks")
		checkCmd.Parse(os.Args[2:])

		if *clear {
			if err := application.ClearChecked(); err != nil {
				log.Fatalf("Reset failed: %v", err)
			}
			return
		}
		if checkCmd.NArg() < 1 {
			log.Fatal("Usage: check <item-key> (e.g. produce-0) or check --clear")
		}
		if err := application.ToggleChecked(checkCmd.Arg(0)); err != nil {
			log.Fatalf("Toggle failed: %v", err)
		}

	case "import":
		importCmd := flag.NewFlagSet("import", flag.ExitOnError)
		category := importCmd.String("category", "dinner", "meal category for the imported recipe")
		importCmd.Parse(os.Args[2:])
		if importCmd.NArg() < 1 {
			log.Fatal("Usage: import [--category lunch] <url>")
		}
		if err := application.ImportRecipe(ctx, importCmd.Arg(0), *category); err != nil {
			log.Fatalf("Import failed: %v", err)
		}

	case "saved":
		if len(os.Args) < 3 {
			log.Fatal("Usage: saved list | saved add <recipe-id> | saved remove <recipe-id>")
		}
		switch os.Args[2] {
		case "list":
			recipes, err := application.SavedRecipes(ctx)
			if err != nil {
				log.Fatalf("Failed to list saved recipes: %v", err)
			}
			for _, r := range recipes {
				fmt.Printf("%s  %s (%s)\n", r.ID, r.Title, r.Category)
			}
		case "add":
			if err := application.SaveRecipe(ctx, os.Args[3]); err != nil {
				log.Fatalf("Failed to save recipe: %v", err)
			}
		case "remove":
			if err := application.UnsaveRecipe(ctx, os.Args[3]); err != nil {
				log.Fatalf("Failed to remove recipe: %v", err)
			}
		default:
			log.Fatalf("Unknown saved subcommand %q", os.Args[2])
		}

	case "metrics":
		metricsCmd := flag.NewFlagSet("metrics", flag.ExitOnError)
		days := metricsCmd.Int("days", 7, "show usage for the last N days")
		metricsCmd.Parse(os.Args[2:])

		usage, err := metricsStore.GetDailyUsage(ctx, *days)
		if err != nil {
			log.Fatalf("Failed to load metrics: %v", err)
		}
		for _, u := range usage {
			fmt.Printf("%s  ops=%d shortage=%d failures=%d\n", u.Date, u.Operations, u.TotalShortage, u.Failures)
		}

	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		removed, err := metricsStore.Cleanup(ctx, *days)
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		fmt.Printf("Removed %d metric record(s).\n", removed)

	default:
		printUsage()
		os.Exit(1)
	}

	if err := application.Flush(); err != nil {
		log.Printf("Warning: failed to flush navigation snapshot: %v", err)
	}
}

func applySelection(application *app.App, sel menu.Selection) {
	current := application.Selection()
	for day, meals := range current {
		for _, meal := range meals {
			if !sel.Contains(day, meal) {
				application.ToggleSlot(day, meal)
			}
		}
	}
	for day, meals := range sel {
		for _, meal := range meals {
			if !application.Selection().Contains(day, meal) {
				application.ToggleSlot(day, meal)
			}
		}
	}
}

func printSlots(slots []menu.Slot) {
	fmt.Println("\n=== WEEKLY MENU ===")
	for _, s := range slots {
		title := "(empty)"
		if s.Bound() {
			title = s.Recipe.Title
		}
		fmt.Printf("% -20s %s\n", s.ID()+":", title)
	}
}

func printList(application *app.App, list *shopping.List) {
	items, err := application.CheckedItems()
	if err != nil {
		log.Printf("Warning: failed to load checkmarks: %v", err)
		items = nil
	}

	fmt.Println("\n=== SHOPPING LIST ===")
	for _, category := range list.Categories {
		fmt.Printf("\n[%s]\n", category)
		for i, item := range list.Items[category] {
			key := fmt.Sprintf("%s-%d", category, i)
			mark := " "
			if items[key] {
				mark = "x"
			}
			fmt.Printf("  [%s] %s: %.4g %s (%s)\n", mark, item.Name, item.Quantity, item.Unit, key)
		}
	}
	if len(list.OptionalItems) > 0 {
		fmt.Println("\n[optional]")
		for i, item := range list.OptionalItems {
			key := fmt.Sprintf("optional-%d", i)
			mark := " "
			if items[key] {
				mark = "x"
			}
			fmt.Printf("  [%s] %s (%s)\n", mark, item.Name, key)
		}
	}
	fmt.Printf("\n%d item(s) across %d categor(ies)\n", list.Summary.TotalItems, list.Summary.TotalCategories)
}

func printUsage() {
	fmt.Println(`Usage: menu-planner <command>

Commands:
  generate [--select "monday:lunch,dinner"] [--save] [--name NAME]
  menu
  search [--category MEAL] [--diet TAG] [--title TEXT] [--max-prep MIN]
  replace <day> <meal> <recipe-id>
  sync
  shopping-list [--export FILE.xlsx]
  check <item-key> | check --clear
  import [--category MEAL] <url>
  saved list | saved add <id> | saved remove <id>
  metrics [--days N]
  metrics-cleanup [--days N]`)
}
