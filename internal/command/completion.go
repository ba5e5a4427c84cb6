package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/cachefetch/internal/meta"
)

const bashCompletionScript = `# bash completion for cachefetch
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_cachefetch()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "get fetch policy cache completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local common="--color -c --output -o"
    local store="--store --cache-dir --s3-bucket --s3-prefix --s3-region --s3-profile"
    local caching="--cache --ttl -t --reset -r --signature -s --key -k --select --opt"
    local transport="--header -H --cookie-file --timeout --retries"

    case "$cmd" in
        get)
            local opts="$common $store $caching $transport --parallel"
            ;;
        fetch)
            local opts="$common $store $caching $transport --data -d"
            if [[ ${COMP_CWORD} -eq 2 && "$cur" != -* ]]; then
                COMPREPLY=( $(compgen -W "GET HEAD POST PUT PATCH DELETE OPTIONS" -- "$cur") )
                return 0
            fi
            ;;
        policy)
            local opts="$common $caching $transport"
            if [[ ${COMP_CWORD} -eq 2 && "$cur" != -* ]]; then
                COMPREPLY=( $(compgen -W "GET HEAD POST PUT PATCH DELETE OPTIONS" -- "$cur") )
                return 0
            fi
            ;;
        cache)
            if [[ ${COMP_CWORD} -eq 2 ]]; then
                COMPREPLY=( $(compgen -W "ls drop rm purge" -- "$cur") )
                return 0
            fi
            local opts="$common $store --filter -f --sort --titles --tag --hours"
            ;;
        completion)
            local opts="bash zsh"
            COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    case "$prev" in
        --output|-o)
            COMPREPLY=( $(compgen -W "text json yaml" -- "$cur") )
            return 0
            ;;
        --store)
            COMPREPLY=( $(compgen -W "file sqlite s3" -- "$cur") )
            return 0
            ;;
        --cookie-file|--cache-dir)
            COMPREPLY=( $(compgen -f -- "$cur") )
            return 0
            ;;
    esac

    if [[ "$cur" == -* ]]; then
        COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
        return 0
    fi
    return 0
}

complete -F _cachefetch cachefetch
`

const zshCompletionScript = `#compdef cachefetch

_cachefetch() {
  local -a cmds
  cmds=(
    'get:GET one or more URLs through the cache'
    'fetch:run any method against a URL, caching GETs'
    'policy:show the caching policy for METHOD URL'
    'cache:inspect and invalidate the cache store'
    'completion:generate shell completion script'
  )

  local -a common store caching transport
  common=(
    '(-c --color)'{-c,--color}'[enable colored text]'
    '(-o --output)'{-o,--output}'[output format]:format:(text json yaml)'
  )
  store=(
    '--store[cache store]:store:(file sqlite s3)'
    '--cache-dir[cache directory]:dir:_directories'
    '--s3-bucket[s3 bucket]:bucket'
    '--s3-prefix[s3 key prefix]:prefix'
    '--s3-region[s3 region]:region'
    '--s3-profile[aws profile]:profile'
  )
  caching=(
    '--cache[cache directive]:directive'
    '(-t --ttl)'{-t,--ttl}'[ttl in seconds]:seconds'
    '(-r --reset)'{-r,--reset}'[drop entry and refetch]'
    '(-s --signature)'{-s,--signature}'[required body text]:text'
    '(-k --key)'{-k,--key}'[explicit cache key]:key'
    '--select[gjson path to store]:path'
    '*--opt[extra cache option]:key=value'
  )
  transport=(
    '*'{-H,--header}'[request header]:header'
    '--cookie-file[cookie jar file]:file:_files'
    '--timeout[request timeout]:duration'
    '--retries[retries]:count'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'cachefetch commands' cmds
    return
  fi

  case $words[2] in
    get)
      _arguments -C $common $store $caching $transport \
        '--parallel[maximum concurrent fetches]:count' \
        '*:url'
      ;;
    fetch)
      _arguments -C $common $store $caching $transport \
        '(-d --data)'{-d,--data}'[request body]:data' \
        '1:method:(GET HEAD POST PUT PATCH DELETE OPTIONS)' \
        '2:url'
      ;;
    policy)
      _arguments -C $common $caching $transport \
        '1:method:(GET HEAD POST PUT PATCH DELETE OPTIONS)' \
        '2:url'
      ;;
    cache)
      _arguments -C $common $store \
        '(-f --filter)'{-f,--filter}'[filters to apply]:filters' \
        '--sort[sort columns]:columns' \
        '--titles[show titles]' \
        '--tag[tag to drop]:tag' \
        '--hours[purge age]:hours' \
        '1:action:(ls drop rm purge)' \
        '*:key'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _cachefetch cachefetch
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	w := cmd.Root().Writer
	switch shell {
	case "bash":
		fmt.Fprint(w, bashCompletionScript)
	case "zsh":
		fmt.Fprint(w, zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		if strings.HasSuffix(sh, "zsh") {
			fmt.Fprint(w, zshCompletionScript)
		} else if strings.HasSuffix(sh, "bash") {
			fmt.Fprint(w, bashCompletionScript)
		} else {
			fmt.Fprintln(cmd.Root().ErrWriter, "usage: cachefetch completion [bash|zsh]")
			return nil
		}
	}
	return nil
}

func CompletionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "cachefetch completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
