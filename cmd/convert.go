package cmd

import (
	"fmt"
	"io/ioutil"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spatialbench/annotator/db"
	"github.com/spatialbench/annotator/qa"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Rewrite a dataset file in the current format",
	Long: `Rewrite a dataset file in the current format. The input may be a flat QA
list, a video-keyed constructor map, a segment-keyed candidate map or a
current document.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := ioutil.ReadFile(args[0])
		if err != nil {
			return err
		}
		d, err := qa.Decode(data)
		if err != nil {
			return errors.Wrapf(err, "decoding %s", args[0])
		}
		store, err := db.NewFileStore(filepath.Dir(args[1]))
		if err != nil {
			return err
		}
		if err := store.Put(filepath.Base(args[1]), d.Encode()); err != nil {
			return err
		}
		st := d.Statistics()
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d videos, %d segments, %d qas\n",
			args[1], st.Videos, st.Segments, st.QAs)
		return nil
	},
}
