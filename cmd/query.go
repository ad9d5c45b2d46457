package cmd

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/viant/kgraph/graph"
	"github.com/viant/kgraph/query"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run queries over the knowledge graph",
}

func init() {
	queryCmd.AddCommand(connectedFilesCmd)
	queryCmd.AddCommand(functionUsageCmd)
	queryCmd.AddCommand(cyclesCmd)
	queryCmd.AddCommand(pathCmd)
	queryCmd.AddCommand(hubsCmd)
	queryCmd.AddCommand(moduleCentralityCmd)
	queryCmd.AddCommand(traitImplsCmd)
	queryCmd.AddCommand(unreferencedItemsCmd)
	queryCmd.AddCommand(itemInfoCmd)
	queryCmd.AddCommand(statsCmd)
}

// --- connected-files ---

var connectedFilesFlags struct {
	commonFlags
	file string
}

var connectedFilesCmd = &cobra.Command{
	Use:   "connected-files",
	Short: "List files connected to the given file via relationships",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := &connectedFilesFlags.commonFlags
		file := connectedFilesFlags.file
		if file == "" && len(args) > 0 {
			file = args[0]
		}
		g, err := resolveGraph(cmd.Context(), f)
		if err != nil {
			return err
		}
		rows := paginate(query.ConnectedFiles(g, file), f.offset, f.limit)
		if f.format == "json" {
			return printJSON(rows)
		}
		table := make([][]string, len(rows))
		for i, r := range rows {
			table[i] = []string{r}
		}
		printTable([]string{"File"}, table)
		return nil
	},
}

func init() {
	f := &connectedFilesFlags.commonFlags
	addCommonFlags(connectedFilesCmd, f)
	addFormatFlags(connectedFilesCmd, f)
	connectedFilesCmd.Flags().StringVar(&connectedFilesFlags.file, "file", "", "the file to analyze")
}

// --- function-usage ---

var functionUsageFlags struct {
	commonFlags
	function  string
	direction string
}

var functionUsageCmd = &cobra.Command{
	Use:   "function-usage",
	Short: "List files that call or are called by a given function name",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := &functionUsageFlags.commonFlags
		g, err := resolveGraph(cmd.Context(), f)
		if err != nil {
			return err
		}
		dir := query.Callers
		if functionUsageFlags.direction == "callees" {
			dir = query.Callees
		}
		rows := paginate(query.FunctionUsage(g, functionUsageFlags.function, dir), f.offset, f.limit)
		if f.format == "json" {
			return printJSON(rows)
		}
		table := make([][]string, len(rows))
		for i, r := range rows {
			table[i] = []string{r}
		}
		printTable([]string{"File"}, table)
		return nil
	},
}

func init() {
	f := &functionUsageFlags.commonFlags
	addCommonFlags(functionUsageCmd, f)
	addFormatFlags(functionUsageCmd, f)
	functionUsageCmd.Flags().StringVar(&functionUsageFlags.function, "function", "", "function name to analyze")
	functionUsageCmd.Flags().StringVar(&functionUsageFlags.direction, "direction", "callers", "callers or callees")
}

// --- cycles ---

var cyclesFlags commonFlags

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "Detect cycles between files",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := resolveGraph(cmd.Context(), &cyclesFlags)
		if err != nil {
			return err
		}
		rows := paginate(query.CycleDetection(g), cyclesFlags.offset, cyclesFlags.limit)
		if cyclesFlags.format == "json" {
			return printJSON(rows)
		}
		table := make([][]string, len(rows))
		for i, r := range rows {
			table[i] = []string{fmt.Sprint(i + 1), fmt.Sprintf("%v", r)}
		}
		printTable([]string{"#", "Cycle"}, table)
		return nil
	},
}

func init() {
	addCommonFlags(cyclesCmd, &cyclesFlags)
	addFormatFlags(cyclesCmd, &cyclesFlags)
}

// --- path ---

var pathFlags struct {
	commonFlags
	from string
	to   string
}

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Compute shortest path between two files",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := &pathFlags.commonFlags
		g, err := resolveGraph(cmd.Context(), f)
		if err != nil {
			return err
		}
		result := query.ShortestPath(g, pathFlags.from, pathFlags.to)
		rows := paginate(result, f.offset, f.limit)
		if f.format == "json" {
			return printJSON(rows)
		}
		table := make([][]string, len(rows))
		for i, r := range rows {
			table[i] = []string{strconv.Itoa(i), r}
		}
		printTable([]string{"Step", "File"}, table)
		return nil
	},
}

func init() {
	f := &pathFlags.commonFlags
	addCommonFlags(pathCmd, f)
	addFormatFlags(pathCmd, f)
	pathCmd.Flags().StringVar(&pathFlags.from, "from", "", "source file path")
	pathCmd.Flags().StringVar(&pathFlags.to, "to", "", "destination file path")
}

// --- hubs ---

var hubsFlags struct {
	commonFlags
	metric string
	top    int
}

var hubsCmd = &cobra.Command{
	Use:   "hubs",
	Short: "List top-N hub files by degree centrality",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := &hubsFlags.commonFlags
		g, err := resolveGraph(cmd.Context(), f)
		if err != nil {
			return err
		}
		rows := paginate(query.Hubs(g, parseMetric(hubsFlags.metric), hubsFlags.top), f.offset, f.limit)
		return renderHubRows(f, rows)
	},
}

func init() {
	f := &hubsFlags.commonFlags
	addCommonFlags(hubsCmd, f)
	addFormatFlags(hubsCmd, f)
	hubsCmd.Flags().StringVar(&hubsFlags.metric, "metric", "total", "in, out, or total")
	hubsCmd.Flags().IntVarP(&hubsFlags.top, "top", "t", 10, "top N results")
}

// --- module-centrality ---

var moduleCentralityFlags struct {
	commonFlags
	metric string
	top    int
}

var moduleCentralityCmd = &cobra.Command{
	Use:   "module-centrality",
	Short: "List top-N modules (directories) by degree centrality",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := &moduleCentralityFlags.commonFlags
		g, err := resolveGraph(cmd.Context(), f)
		if err != nil {
			return err
		}
		rows := paginate(query.ModuleCentrality(g, parseMetric(moduleCentralityFlags.metric), moduleCentralityFlags.top), f.offset, f.limit)
		return renderHubRows(f, rows)
	},
}

func init() {
	f := &moduleCentralityFlags.commonFlags
	addCommonFlags(moduleCentralityCmd, f)
	addFormatFlags(moduleCentralityCmd, f)
	moduleCentralityCmd.Flags().StringVar(&moduleCentralityFlags.metric, "metric", "total", "in, out, or total")
	moduleCentralityCmd.Flags().IntVarP(&moduleCentralityFlags.top, "top", "t", 10, "top N results")
}

func parseMetric(s string) query.CentralityMetric {
	switch s {
	case "in":
		return query.MetricIn
	case "out":
		return query.MetricOut
	default:
		return query.MetricTotal
	}
}

func renderHubRows(f *commonFlags, rows []query.HubRow) error {
	if f.format == "json" {
		return printJSON(rows)
	}
	table := make([][]string, len(rows))
	for i, r := range rows {
		table[i] = []string{r.Path, strconv.Itoa(r.InDeg), strconv.Itoa(r.OutDeg), strconv.Itoa(r.InDeg + r.OutDeg)}
	}
	printTable([]string{"Path", "In", "Out", "Total"}, table)
	return nil
}

// --- trait-impls ---

var traitImplsFlags struct {
	commonFlags
	trait string
}

var traitImplsCmd = &cobra.Command{
	Use:   "trait-impls",
	Short: "List types implementing a trait",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := &traitImplsFlags.commonFlags
		g, err := resolveGraph(cmd.Context(), f)
		if err != nil {
			return err
		}
		rows := paginate(query.TraitImpls(g, traitImplsFlags.trait), f.offset, f.limit)
		if f.format == "json" {
			return printJSON(rows)
		}
		table := make([][]string, len(rows))
		for i, r := range rows {
			table[i] = []string{r.File, r.TypeName}
		}
		printTable([]string{"File", "Type"}, table)
		return nil
	},
}

func init() {
	f := &traitImplsFlags.commonFlags
	addCommonFlags(traitImplsCmd, f)
	addFormatFlags(traitImplsCmd, f)
	traitImplsCmd.Flags().StringVar(&traitImplsFlags.trait, "trait", "", "trait name (e.g. Display)")
}

// --- unreferenced-items ---

var unreferencedItemsFlags struct {
	commonFlags
	includePublic bool
	exclude       string
}

var unreferencedItemsCmd = &cobra.Command{
	Use:   "unreferenced-items",
	Short: "List items with no inbound usage edges (potentially dead code)",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := &unreferencedItemsFlags.commonFlags
		g, err := resolveGraph(cmd.Context(), f)
		if err != nil {
			return err
		}
		var exclude *regexp.Regexp
		if unreferencedItemsFlags.exclude != "" {
			var err error
			exclude, err = regexp.Compile(unreferencedItemsFlags.exclude)
			if err != nil {
				return err
			}
		}
		rows := paginate(query.UnreferencedItems(g, unreferencedItemsFlags.includePublic, exclude), f.offset, f.limit)
		if f.format == "json" {
			return printJSON(rows)
		}
		table := make([][]string, len(rows))
		for i, r := range rows {
			table[i] = []string{r.File, r.Name, r.Kind, r.Visibility}
		}
		printTable([]string{"File", "Name", "Kind", "Visibility"}, table)
		return nil
	},
}

func init() {
	f := &unreferencedItemsFlags.commonFlags
	addCommonFlags(unreferencedItemsCmd, f)
	addFormatFlags(unreferencedItemsCmd, f)
	unreferencedItemsCmd.Flags().BoolVar(&unreferencedItemsFlags.includePublic, "include-public", false, "include public items as well")
	unreferencedItemsCmd.Flags().StringVar(&unreferencedItemsFlags.exclude, "exclude", "", "regex to exclude paths")
}

// --- item-info ---

var itemInfoFlags struct {
	commonFlags
	itemID   string
	name     string
	kind     string
	showCode bool
}

var itemInfoCmd = &cobra.Command{
	Use:   "item-info",
	Short: "Show a single item's definition and relations by id",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := &itemInfoFlags.commonFlags
		g, err := resolveGraph(cmd.Context(), f)
		if err != nil {
			return err
		}

		id := graph.ItemID(itemInfoFlags.itemID)
		if id == "" && itemInfoFlags.name != "" {
			found, ok := lookupByName(g, itemInfoFlags.name, itemInfoFlags.kind)
			if !ok {
				return fmt.Errorf("no item named %q found", itemInfoFlags.name)
			}
			id = found
		}
		if id == "" {
			return fmt.Errorf("one of --item-id or --name is required")
		}

		info := query.ItemInfoQuery(cmd.Context(), g, id, itemInfoFlags.showCode)
		if info == nil {
			return fmt.Errorf("item %q not found", id)
		}
		if f.format == "json" {
			return printJSON(info)
		}
		fmt.Printf("%s  (%s, %s)\n%s:%d-%d\n", info.Name, info.Kind, info.Visibility, info.Path, info.LineStart, info.LineEnd)
		if info.Code != nil {
			fmt.Println("---")
			fmt.Println(*info.Code)
			fmt.Println("---")
		}
		fmt.Println("inbound:")
		for _, r := range info.Inbound {
			fmt.Printf("  %s <- %s (%s)\n", r.Name, r.Path, r.Relation)
		}
		fmt.Println("outbound:")
		for _, r := range info.Outbound {
			fmt.Printf("  %s -> %s (%s)\n", r.Name, r.Path, r.Relation)
		}
		return nil
	},
}

func init() {
	f := &itemInfoFlags.commonFlags
	addCommonFlags(itemInfoCmd, f)
	addFormatFlags(itemInfoCmd, f)
	itemInfoCmd.Flags().StringVar(&itemInfoFlags.itemID, "item-id", "", "item id (e.g. fn:createIcons:6)")
	itemInfoCmd.Flags().StringVarP(&itemInfoFlags.name, "name", "n", "", "lookup by item name")
	itemInfoCmd.Flags().StringVarP(&itemInfoFlags.kind, "kind", "k", "", "narrow name lookup to a kind")
	itemInfoCmd.Flags().BoolVar(&itemInfoFlags.showCode, "show-code", true, "include code snippet")
}

func lookupByName(g *graph.KnowledgeGraph, name, kind string) (graph.ItemID, bool) {
	for _, file := range g.Files {
		for _, item := range file.Items {
			if item.Name != name {
				continue
			}
			if kind != "" && string(item.ItemType.Kind) != kind {
				continue
			}
			return item.ID, true
		}
	}
	return "", false
}

// --- stats ---

var statsFlags commonFlags

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show basic graph size statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := resolveGraph(cmd.Context(), &statsFlags)
		if err != nil {
			return err
		}
		s := query.ComputeStats(g)
		if statsFlags.format == "json" {
			return printJSON(s)
		}
		fmt.Printf("files:         %d\n", s.FileCount)
		fmt.Printf("items:         %d\n", s.ItemCount)
		fmt.Printf("relationships: %d\n", s.RelationshipCount)
		table := make([][]string, 0, len(s.ItemCountByKind))
		for kind, count := range s.ItemCountByKind {
			table = append(table, []string{kind, strconv.Itoa(count)})
		}
		printTable([]string{"Kind", "Count"}, table)
		return nil
	},
}

func init() {
	addCommonFlags(statsCmd, &statsFlags)
	addFormatFlags(statsCmd, &statsFlags)
}
