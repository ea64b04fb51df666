/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package decode

import (
	"bufio"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wavemon/go-wavexlr/pkg/layers"
	"github.com/wavemon/go-wavexlr/pkg/log"
)

const (
	FileOptionName = "file"
)

// NewCommand creates a cobra command that decodes captured transfer records.
// Records are read as newline delimited JSON from a file or stdin, one
// decoded field tree is printed per record.
func NewCommand() *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode captured control transfer records",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if filePath != "" {
				f, err := os.Open(filePath)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return decodeRecords(cmd.OutOrStdout(), in)
		},
	}
	cmd.Flags().StringVar(&filePath, FileOptionName, "", "File to read records from, stdin if not set")

	return cmd
}

func decodeRecords(out io.Writer, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 65536), 65536)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		transfer, payload, err := layers.ParseRecord(line)
		if err != nil {
			log.Error("Error while parsing record: %s", err)
			continue
		}
		nodes, err := layers.Dispatch(transfer.Event, transfer.DirectionIn, payload)
		if err != nil {
			log.Error("Error while decoding record: %s", err)
			continue
		}
		for _, node := range nodes {
			if _, err := io.WriteString(out, node.Dump()); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}
