/*
Package domain contains the data model shared by the bardic compiler, engine
and adapters.

It is kept free of I/O so that stores, transports and frontends can depend on
it without pulling in the runtime.

# Key Entities

  - Document: a compiled story, its metadata and passages.
  - Passage: a named body of ContentNodes plus its choices and execute list.
  - ContentNode: Text, Expression, Conditional, ForLoop, Jump, PythonBlock,
    RenderDirective, InputDirective, SetVar and ExpressionStatement. Each
    encodes to JSON with a "type" tag.
  - Output: the rendered passage handed to a frontend.
  - SaveData: the versioned snapshot written by the engine.
*/
package domain
